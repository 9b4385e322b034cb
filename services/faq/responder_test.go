package faqsvc

import (
	"strings"
	"testing"

	"github.com/nm2tech/classroom/core/user"
)

func TestRespond(t *testing.T) {
	tests := []struct {
		name     string
		question string
		role     string
		want     string
	}{
		{
			name:     "shared answer",
			question: "When is the next newsletter coming out?",
			role:     user.RoleParent,
			want:     "five most recent",
		},
		{
			name:     "teacher specific answer",
			question: "How do I send the newsletter?",
			role:     user.RoleTeacher,
			want:     "every parent on file",
		},
		{
			name:     "student assignment answer",
			question: "Is my homework due tomorrow?",
			role:     user.RoleStudent,
			want:     "mark the assignment complete",
		},
		{
			name:     "case insensitive",
			question: "WHAT IS THE MEMORY VERSE?",
			role:     user.RoleParent,
			want:     "printed in the newsletter",
		},
		{
			name:     "no match falls back",
			question: "What is the meaning of life?",
			role:     user.RoleParent,
			want:     "Try asking about one of those",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Respond(tt.question, tt.role)
			if !strings.Contains(got, tt.want) {
				t.Errorf("Respond() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
