package xref

// Metadata is the one-per-run record the Orchestrator emits before any
// Document (§4.1 step 4).
type Metadata struct {
	ProjectRootURI string
	TextEncoding   string
	ToolName       string
	ToolVersion    string
	ToolArguments  []string
}

// Sink is the write boundary the core emits through (§6): one method for
// the single Metadata record, one for each Document. Splitting the two
// spares every Sink implementation a type switch on what is otherwise a
// single "accept a partial index" call in the distilled contract.
type Sink interface {
	WriteMetadata(Metadata) error
	WriteDocument(Document) error
}
