package llm

import "strings"

// HistoryWindow is the number of most recent turns forwarded to providers.
const HistoryWindow = 6

// TrimHistory keeps user and assistant turns with content, then the last
// HistoryWindow of them.
func TrimHistory(history []Message) []Message {
	kept := make([]Message, 0, len(history))
	for _, m := range history {
		if (m.Role == RoleUser || m.Role == RoleAssistant) && strings.TrimSpace(m.Content) != "" {
			kept = append(kept, m)
		}
	}
	if len(kept) > HistoryWindow {
		kept = kept[len(kept)-HistoryWindow:]
	}
	return kept
}

// BuildMessages assembles system prompt, trimmed history and the current
// user message into a chat-completion message list.
func BuildMessages(system string, history []Message, user string) []Message {
	msgs := make([]Message, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, TrimHistory(history)...)
	return append(msgs, Message{Role: RoleUser, Content: user})
}

// conversation splits a message list into system text, prior turns and the
// final user message.
type conversation struct {
	system  string
	history []Message
	current string
}

func splitConversation(msgs []Message) conversation {
	var c conversation
	var systems []string
	var turns []Message
	for _, m := range msgs {
		if m.Role == RoleSystem {
			systems = append(systems, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	c.system = strings.Join(systems, "\n\n")
	if n := len(turns); n > 0 && turns[n-1].Role == RoleUser {
		c.current = turns[n-1].Content
		turns = turns[:n-1]
	}
	c.history = turns
	return c
}

func speaker(r Role) string {
	if r == RoleUser {
		return "ユーザー: "
	}
	return "アシスタント: "
}

// singlePrompt flattens a conversation into one prompt string for
// providers that take a single text input.
func singlePrompt(msgs []Message) string {
	c := splitConversation(msgs)
	var b strings.Builder
	b.WriteString(c.system)
	b.WriteString("\n\n")
	for _, m := range c.history {
		b.WriteString(speaker(m.Role) + m.Content + "\n")
	}
	b.WriteString("ユーザー: " + c.current + "\nアシスタント:")
	return b.String()
}

// historyPrompt flattens a conversation with a labelled history block and
// a trailing answer cue, the shape text-generation models continue best.
func historyPrompt(msgs []Message) string {
	c := splitConversation(msgs)
	var b strings.Builder
	b.WriteString(c.system)
	b.WriteString("\n\n")
	if len(c.history) > 0 {
		b.WriteString("会話履歴:\n")
		for _, m := range c.history {
			b.WriteString(speaker(m.Role) + m.Content + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("現在の質問: " + c.current + "\n回答:")
	return b.String()
}

// lastUserOnly reduces msgs to the final user message.
func lastUserOnly(msgs []Message) []Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return []Message{msgs[i]}
		}
	}
	return nil
}
