package notify

// Payload is the JSON body posted to an incoming webhook: a plain-text
// fallback plus one mrkdwn section block.
type Payload struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks"`
}

type Block struct {
	Type string    `json:"type"`
	Text BlockText `json:"text"`
}

type BlockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewMessage wraps text into the single-section payload shape.
func NewMessage(text string) Payload {
	return Payload{
		Text: text,
		Blocks: []Block{
			{
				Type: "section",
				Text: BlockText{Type: "mrkdwn", Text: text},
			},
		},
	}
}
