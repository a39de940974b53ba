package service

import (
	"testing"

	"circuitbot/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestLastUserText(t *testing.T) {
	conversation := []models.ConversationTurn{
		{Role: models.RoleUser, Content: "first question"},
		{Role: models.RoleAssistant, Content: "answer"},
		{Role: models.RoleUser, Content: "follow up"},
		{Role: models.RoleAssistant, Content: "another answer"},
	}
	assert.Equal(t, "follow up", lastUserText(conversation))
	assert.Equal(t, "", lastUserText([]models.ConversationTurn{{Role: models.RoleAssistant, Content: "hi"}}))
	assert.Equal(t, "implicit", lastUserText([]models.ConversationTurn{{Content: "implicit"}}))
}

func TestBuildMessages(t *testing.T) {
	conversation := []models.ConversationTurn{
		{Role: models.RoleUser, Content: "look"},
	}
	msgs := buildMessages("sys", conversation, "")
	assert.Equal(t, []models.ChatMessage{
		{Role: models.RoleSystem, Text: "sys"},
		{Role: models.RoleUser, Text: "look"},
	}, msgs)

	msgs = buildMessages("sys", conversation, "data:image/jpeg;base64,CCCC")
	assert.Equal(t, "data:image/jpeg;base64,CCCC", msgs[1].ImageURL)
}

func TestRoundHundredths(t *testing.T) {
	assert.Equal(t, 1.23, roundHundredths(1.2345))
	assert.Equal(t, 0.5, roundHundredths(0.499))
	assert.Equal(t, 0.0, roundHundredths(0.001))
}
