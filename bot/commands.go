package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	CommandHelp  = "help"
	CommandIP    = "ip"
	CommandStart = "start"
)

// Commands is published to Telegram and used to build the help text.
var Commands = []tgbotapi.BotCommand{
	{Command: CommandHelp, Description: "Display this help"},
	{Command: CommandIP, Description: "Get your real public IP address"},
	{Command: CommandStart, Description: "Start the bot"},
}

func HelpText() string {
	var sb strings.Builder
	sb.WriteString("Supported commands:")
	for _, cmd := range Commands {
		sb.WriteString("\n/")
		sb.WriteString(cmd.Command)
		sb.WriteString(" - ")
		sb.WriteString(cmd.Description)
	}

	return sb.String()
}
