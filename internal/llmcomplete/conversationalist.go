package llmcomplete

type Conversationalist interface {
	NewConversation(modelID ModelID, systemMessage string) Conversation
}

type conversationalist struct{}

func (c conversationalist) NewConversation(modelID ModelID, systemMessage string) Conversation {
	return NewConversation(modelID, systemMessage)
}

func NewConversationalist() Conversationalist {
	return conversationalist{}
}

type mockConversationalist struct {
	responses map[string]MockResponse // responses is a map from keywords in the user message to assistant response
}

func (c mockConversationalist) NewConversation(modelID ModelID, systemMessage string) Conversation {
	return newMockConversation(modelID, systemMessage, c.responses)
}

// NewMockConversationalist returns a Conversationalist whose conversations reply with the value of any key contained in the user message.
func NewMockConversationalist(responses map[string]string) Conversationalist {
	return mockConversationalist{responses: textResponses(responses)}
}

// NewMockConversationalistResponses is like NewMockConversationalist, but each reply can also set a stop reason or fail.
func NewMockConversationalistResponses(responses map[string]MockResponse) Conversationalist {
	return mockConversationalist{responses: responses}
}
