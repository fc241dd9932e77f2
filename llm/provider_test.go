package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatResponse_Text(t *testing.T) {
	tests := []struct {
		name string
		resp *ChatResponse
		want string
	}{
		{name: "nil response", resp: nil, want: ""},
		{name: "no choices", resp: &ChatResponse{}, want: ""},
		{
			name: "first choice",
			resp: &ChatResponse{Choices: []ChatChoice{
				{Message: Message{Role: RoleAssistant, Content: "первый"}},
				{Message: Message{Role: RoleAssistant, Content: "второй"}},
			}},
			want: "первый",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resp.Text())
		})
	}
}

func TestError_Error(t *testing.T) {
	err := &Error{Code: ErrRateLimited, Message: "slow down", Provider: "openai"}
	assert.Equal(t, "slow down", err.Error())
}
