package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/peterh/liner"

	"arthik-chat-be/pkg/chatclient"
)

const helpText = `Commands:
  /new        start a new conversation
  /history    list previous conversations
  /open N     reopen conversation N from /history
  /clear      clear the screen transcript
  /quit       exit`

var (
	userColor      = color.New(color.FgCyan, color.Bold)
	assistantColor = color.New(color.FgGreen)
	infoColor      = color.New(color.FgHiBlack)
	errColor       = color.New(color.FgRed)
)

// Terminal front end for the chat API.
func main() {
	_ = godotenv.Load()

	defaultURL := os.Getenv("CHAT_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:" + envOr("APP_PORT", "5000")
	}
	baseURL := flag.String("url", defaultURL, "chat API base URL")
	token := flag.String("token", os.Getenv("CHAT_TOKEN"), "bearer token for the chat API")
	flag.Parse()

	var opts []chatclient.Option
	if *token != "" {
		opts = append(opts, chatclient.WithToken(*token))
	}
	client := chatclient.New(*baseURL, opts...)
	state := chatclient.NewChatState(client)

	ctx := context.Background()
	if h, err := client.Health(ctx); err != nil {
		errColor.Printf("Server at %s is not reachable: %v\n", *baseURL, err)
	} else {
		infoColor.Printf("Connected to %s (v%s)\n", *baseURL, h.Version)
	}
	fmt.Println(helpText)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyFile := filepath.Join(os.TempDir(), "arthik_chat_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		input, err := line.Prompt("you> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			errColor.Printf("read input: %v\n", err)
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := runCommand(ctx, state, input); quit {
				return
			}
			continue
		}

		infoColor.Println("thinking...")
		err = state.Send(ctx, input)
		snap := state.Snapshot()
		if len(snap.Messages) > 0 {
			last := snap.Messages[len(snap.Messages)-1]
			if last.Role == "assistant" {
				assistantColor.Printf("arthik> %s\n", last.Content)
			}
		}
		if err != nil {
			errColor.Printf("(%v)\n", err)
		}
	}
}

func runCommand(ctx context.Context, state *chatclient.ChatState, input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/q":
		return true

	case "/new":
		id := state.NewChat()
		infoColor.Printf("New conversation %s\n", id)

	case "/clear":
		state.Clear()
		fmt.Print("\033[H\033[2J")

	case "/history":
		if err := state.RefreshHistory(ctx); err != nil {
			errColor.Printf("Could not load history: %v\n", err)
			return false
		}
		history := state.Snapshot().History
		if len(history) == 0 {
			infoColor.Println("No conversations yet.")
		}
		for i, s := range history {
			fmt.Printf("%3d. %s ", i+1, s.Title)
			infoColor.Printf("(%s)\n", s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}

	case "/open":
		if len(fields) < 2 {
			errColor.Println("Usage: /open N")
			return false
		}
		n, err := strconv.Atoi(fields[1])
		history := state.Snapshot().History
		if err != nil || n < 1 || n > len(history) {
			errColor.Println("Run /history and pick a listed number.")
			return false
		}
		if err := state.SelectSession(ctx, history[n-1].Id); err != nil {
			errColor.Printf("Could not open conversation: %v\n", err)
			return false
		}
		for _, m := range state.Snapshot().Messages {
			if m.Role == "user" {
				userColor.Printf("you> %s\n", m.Content)
			} else {
				assistantColor.Printf("arthik> %s\n", m.Content)
			}
		}

	default:
		fmt.Println(helpText)
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
