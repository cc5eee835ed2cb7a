// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/parley/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter renders a conversation as a standalone HTML document with
// embedded styling. Also serves as the PDF fallback payload.
type HTMLExporter struct{}

// FileExtension returns ".html".
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType returns "text/html".
func (e *HTMLExporter) MimeType() string { return "text/html" }

const htmlStyle = `
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
            color: #333;
        }
        .header {
            text-align: center;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 20px;
            border-radius: 10px;
            margin-bottom: 30px;
        }
        .conversation {
            background: white;
            border-radius: 10px;
            padding: 20px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        .message {
            margin-bottom: 20px;
            padding: 15px;
            border-radius: 10px;
        }
        .user-message {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            margin-left: 50px;
        }
        .assistant-message {
            background: #f8f9fa;
            border: 1px solid #e9ecef;
            margin-right: 50px;
        }
        .role {
            font-weight: bold;
            font-size: 14px;
            margin-bottom: 5px;
        }
        .timestamp {
            font-size: 12px;
            opacity: 0.7;
            margin-top: 10px;
        }
        .content {
            line-height: 1.6;
            white-space: pre-wrap;
        }
        .stats {
            background: #e9ecef;
            padding: 15px;
            border-radius: 5px;
            margin-top: 20px;
        }
        .footer {
            text-align: center;
            margin-top: 30px;
            font-size: 12px;
            color: #666;
        }`

var roleTitler = cases.Title(language.English)

// roleLabel maps a message role to its display label.
func roleLabel(role string) string {
	switch role {
	case "user":
		return "You"
	case "assistant":
		return "Assistant"
	default:
		return roleTitler.String(role)
	}
}

// Export renders the conversation document.
func (e *HTMLExporter) Export(messages []storage.Message, conversationID string) ([]byte, error) {
	escapedID := html.EscapeString(conversationID)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString("    <title>Parley Conversation - " + escapedID + "</title>\n")
	sb.WriteString("    <style>" + htmlStyle + "\n    </style>\n</head>\n<body>\n")

	sb.WriteString("    <div class=\"header\">\n")
	sb.WriteString("        <h1>Parley Conversation</h1>\n")
	sb.WriteString("        <p>Conversation ID: " + escapedID + "</p>\n")
	sb.WriteString("        <p>Export Date: " + time.Now().Format("2006-01-02 15:04:05") + "</p>\n")
	sb.WriteString("    </div>\n\n")

	sb.WriteString("    <div class=\"conversation\">\n")
	fmt.Fprintf(&sb, "        <h2>Messages (%d total)</h2>\n", len(messages))

	userCount, assistantCount := 0, 0
	for _, msg := range messages {
		roleClass := "assistant-message"
		switch msg.Role {
		case "user":
			roleClass = "user-message"
			userCount++
		case "assistant":
			assistantCount++
		}

		sb.WriteString("        <div class=\"message " + roleClass + "\">\n")
		sb.WriteString("            <div class=\"role\">" + roleLabel(msg.Role) + "</div>\n")
		sb.WriteString("            <div class=\"content\">" + html.EscapeString(msg.Content) + "</div>\n")
		sb.WriteString("            <div class=\"timestamp\">" + messageTimestamp(msg.Timestamp) + "</div>\n")
		sb.WriteString("        </div>\n")
	}

	sb.WriteString("        <div class=\"stats\">\n")
	sb.WriteString("            <h3>Conversation Statistics</h3>\n")
	fmt.Fprintf(&sb, "            <p><strong>Total Messages:</strong> %d</p>\n", len(messages))
	fmt.Fprintf(&sb, "            <p><strong>Your Messages:</strong> %d</p>\n", userCount)
	fmt.Fprintf(&sb, "            <p><strong>Assistant Messages:</strong> %d</p>\n", assistantCount)
	sb.WriteString("            <p><strong>Conversation Duration:</strong> " + calculateDuration(messages) + "</p>\n")
	sb.WriteString("        </div>\n    </div>\n\n")

	sb.WriteString("    <div class=\"footer\">\n")
	sb.WriteString("        <p>Generated by Parley</p>\n")
	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}
