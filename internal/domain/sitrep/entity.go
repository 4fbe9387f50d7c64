package sitrep

import "time"

// ChatTurn is one message in a scan's follow-up conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Artifact correlates one scan with its derived intelligence: the
// detection context fed to the analyst, the generated SITREP, model/token
// metadata and the ordered chat history. Created exactly once per scan and
// then only extended.
type Artifact struct {
	Timestamp        time.Time  `json:"timestamp"`
	DetectionContext string     `json:"detection_context"`
	Sitrep           string     `json:"sitrep"`
	Model            string     `json:"model"`
	Tokens           int        `json:"tokens"`
	ChatHistory      []ChatTurn `json:"chat_history"`
}
