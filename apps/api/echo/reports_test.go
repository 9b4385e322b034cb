package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nm2tech/classroom/core/event"
	"github.com/nm2tech/classroom/core/user"
)

func Test_reportsApi_counters(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedUser(t, "mrs.simms", "password123", user.RoleTeacher)
	parent := env.seedUser(t, "parent1", "password123", user.RoleParent)

	seedNewsletter(t, env, teacher.ID, "Week 1", "2025-09-05")
	seedNewsletter(t, env, teacher.ID, "Week 2", "2025-09-12")
	ev := seedEvent(t, env, teacher.ID, "Field Trip", "2030-10-31")
	seedAssignment(t, env, teacher.ID, "Week 3 words", "2030-10-10")

	_, err := env.evSvc.Respond(context.Background(), event.NewRSVP{EventID: ev.ID, AttendeesCount: 2}, parent.ID)
	assert.NoError(t, err)

	t.Run("staff sees the counters", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports", getToken(t, teacher))
		env.app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var counters ReportCounters
		decodeBody(t, rec, &counters)
		assert.Equal(t, ReportCounters{Newsletters: 2, Events: 1, Assignments: 1, RSVPs: 1}, counters)
	})

	t.Run("parents do not", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports", getToken(t, parent))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_faqApi_ask(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedUser(t, "mrs.simms", "password123", user.RoleTeacher)
	student := env.seedUser(t, "student1", "password123", user.RoleStudent)

	tests := []struct {
		name     string
		token    string
		question string
		contains string
	}{
		{
			name:     "teacher gets the teacher answer",
			token:    getToken(t, teacher),
			question: "How do I send the newsletter?",
			contains: "create, edit and send",
		},
		{
			name:     "student gets the student answer",
			token:    getToken(t, student),
			question: "When is my homework due?",
			contains: "mark the assignment complete",
		},
		{
			name:     "unknown question gets the fallback",
			token:    getToken(t, student),
			question: "What is the meaning of life?",
			contains: "Try asking about one of those",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := marshallObj(t, FaqRequest{Question: tt.question})
			req, rec := newAuthRequest(http.MethodPost, "/v1/faq", tt.token, body)
			env.app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			var resp FaqResponse
			decodeBody(t, rec, &resp)
			assert.Contains(t, resp.Answer, tt.contains)
		})
	}

	t.Run("empty question is rejected", func(t *testing.T) {
		body := marshallObj(t, FaqRequest{})
		req, rec := newAuthRequest(http.MethodPost, "/v1/faq", getToken(t, student), body)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
