// Package faqsvc answers common classroom questions from a scripted list.
package faqsvc

import (
	"strings"

	"github.com/nm2tech/classroom/core/user"
)

// entry maps trigger keywords to an answer. Role-specific answers override
// the shared one when the asking principal's role matches.
type entry struct {
	keywords []string
	answer   string
	byRole   map[string]string
}

var entries = []entry{
	{
		keywords: []string{"newsletter"},
		answer:   "Newsletters are published by the teacher and sent to parent emails. The five most recent are available at any time.",
		byRole: map[string]string{
			user.RoleTeacher: "You can create, edit and send newsletters from the newsletter section. Sending emails the latest edition to every parent on file.",
		},
	},
	{
		keywords: []string{"event", "rsvp", "field trip"},
		answer:   "Upcoming class events are listed with their date and location. Parents can RSVP with a headcount.",
		byRole: map[string]string{
			user.RoleParent: "Open the events section to see what is coming up and RSVP with how many family members will attend.",
		},
	},
	{
		keywords: []string{"assignment", "homework", "due"},
		answer:   "Assignments show their subject and due date. Work is due by the date shown.",
		byRole: map[string]string{
			user.RoleStudent: "Check your assignments for due dates. Save your word list and memory verse practice as you go, then mark the assignment complete.",
			user.RoleParent:  "You can follow your child's word list and memory verse progress from the assignments section.",
		},
	},
	{
		keywords: []string{"password", "login", "sign in"},
		answer:   "If you cannot sign in, ask the teacher to reset your password.",
		byRole: map[string]string{
			user.RoleAdmin: "Passwords can be reset from the admin command line tool.",
		},
	},
	{
		keywords: []string{"word list", "spelling"},
		answer:   "The weekly word list is in the current newsletter. Tests are on Fridays.",
	},
	{
		keywords: []string{"memory verse", "verse"},
		answer:   "The memory verse for the week is printed in the newsletter.",
	},
	{
		keywords: []string{"contact", "email", "phone", "reach"},
		answer:   "You can reach Mrs. Simms at Ksimms@washingtonchristian.org or 240-390-0429.",
	},
}

const fallback = "I can answer questions about newsletters, events, assignments, word lists, memory verses and signing in. Try asking about one of those."

// Respond matches the question against the scripted entries and returns the
// first answer whose keywords appear in the text. Stateless per call.
func Respond(question, role string) string {
	q := strings.ToLower(question)
	for _, e := range entries {
		for _, kw := range e.keywords {
			if strings.Contains(q, kw) {
				if ans, ok := e.byRole[role]; ok {
					return ans
				}
				return e.answer
			}
		}
	}
	return fallback
}
