package ocr

// Engine turns an uploaded receipt image or PDF into raw text. The
// transcript is handed to the extraction templates untouched; no
// structuring happens here.
type Engine interface {
	// ExtractText transcribes the document into plain text
	ExtractText(data []byte, contentType string) (string, error)
	// Close releases any backend resources
	Close() error
}

// transcriptPrompt is shared by the LLM-backed engines. The model is
// asked for a verbatim transcript only; structuring is the template
// engine's job.
const transcriptPrompt = `Transcribe all text visible in this receipt or invoice image.

Rules:
- Output the text exactly as printed, line by line, top to bottom.
- Keep store names, dates, item lines, quantities and amounts verbatim, including currency symbols.
- Do not summarize, translate, interpret or reorder anything.
- Do not add commentary and do not wrap the output in markdown code blocks.`
