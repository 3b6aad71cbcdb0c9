package main

import (
	"chat-relay/domain/account"
	"chat-relay/domain/chat"
	"chat-relay/infrastructure/ws"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type printer struct {
	out     io.Writer
	colours bool
}

func (p printer) header(text string) {
	header := fmt.Sprintf("  ====== %s ======", text)
	if p.colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Fprintln(p.out, header)
}

func (p printer) paint(style color.Style, text string) string {
	if !p.colours {
		return text
	}
	return style.Render(text)
}

func (p printer) table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(p.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.AppendBulk(rows)
	table.Render()
}

func (p printer) users(users []account.Profile) {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Username, u.Email, string(u.Role)})
	}
	p.table([]string{"ID", "Username", "Email", "Role"}, rows)
}

func (p printer) messages(messages []chat.Message) {
	rows := make([][]string, 0, len(messages))
	for _, m := range messages {
		read := ""
		if m.Read {
			read = "✓"
		}
		rows = append(rows, []string{
			m.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			string(m.SenderID),
			string(m.RecipientID),
			m.Content,
			read,
		})
	}
	p.table([]string{"At", "From", "To", "Content", "Read"}, rows)
}

// frame prints one live event on a single line.
func (p printer) frame(frame ws.Received) {
	switch frame.Event {
	case chat.EventReceiveMessage:
		var m chat.Message
		if err := json.Unmarshal(frame.Data, &m); err != nil {
			break
		}
		fmt.Fprintf(p.out, "%s %s: %s\n", m.CreatedAt.Local().Format("15:04:05"),
			p.paint(color.Style{color.FgCyan, color.OpBold}, string(m.SenderID)), m.Content)
		return
	case chat.EventUserOnline, chat.EventUserOffline:
		var userID string
		if err := json.Unmarshal(frame.Data, &userID); err != nil {
			break
		}
		style := color.Style{color.FgGreen}
		if frame.Event == chat.EventUserOffline {
			style = color.Style{color.FgGray}
		}
		fmt.Fprintln(p.out, p.paint(style, fmt.Sprintf("* %s %s", userID, frame.Event)))
		return
	case chat.EventUserTyping:
		var typing chat.UserTyping
		if err := json.Unmarshal(frame.Data, &typing); err != nil || !typing.IsTyping {
			return
		}
		fmt.Fprintln(p.out, p.paint(color.Style{color.FgYellow}, fmt.Sprintf("* %s is typing...", typing.SenderID)))
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", frame.Event, string(frame.Data))
}
