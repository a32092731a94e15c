package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/xiaot623/supportiq/pkg/chatclient"
)

var (
	baseURL  string
	botID    string
	language string

	rootCmd = &cobra.Command{
		Use:   "supportiq-cli",
		Short: "Chat with a supportiq bot or watch its escalations",
	}
	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		RunE:  runChat,
	}
	askCmd = &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print escalations for the bot as they happen",
		RunE:  runWatch,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", envOr("SUPPORTIQ_URL", "http://localhost:8080"), "supportiq server address")
	rootCmd.PersistentFlags().StringVar(&botID, "bot-id", envOr("SUPPORTIQ_BOT_ID", "demo-chatbot-id"), "chatbot to talk to")
	chatCmd.Flags().StringVar(&language, "language", "en", "reply language code")
	askCmd.Flags().StringVar(&language, "language", "en", "reply language code")

	rootCmd.AddCommand(chatCmd, askCmd, watchCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newConversation() *chatclient.Conversation {
	return chatclient.New(chatclient.Options{
		BaseURL:  baseURL,
		BotID:    botID,
		Language: language,
		OnDelta:  func(text string) { fmt.Print(text) },
	})
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	conv := newConversation()
	_, err := conv.Send(ctx, strings.Join(args, " "))
	fmt.Println()
	return err
}

func runChat(cmd *cobra.Command, args []string) error {
	conv := newConversation()

	fmt.Printf("Chatting with %s at %s\n", botID, baseURL)
	fmt.Println("Commands: /new to start over, /quit to exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/quit":
			fmt.Println("Bye!")
			return nil
		case "/new":
			conv.Clear()
			fmt.Println("Started a new conversation.")
			continue
		}

		// Ctrl+C aborts the reply in progress, not the program.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		reply, err := conv.Send(ctx, input)
		stop()

		switch {
		case errors.Is(err, chatclient.ErrAborted):
			fmt.Println("\n(cancelled)")
		case err != nil:
			fmt.Printf("%s\n", reply.Content)
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		case reply.Content == chatclient.EmptyReplyText:
			fmt.Println(reply.Content)
		default:
			fmt.Println()
		}
		if id := conv.SessionID(); id != "" {
			fmt.Printf("[session %s]\n", id)
		}
	}
}

type escalationEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	ChatbotID string `json:"chatbotId"`
	Message   string `json:"message"`
	Ts        int64  `json:"ts"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	addr, err := operatorFeedURL(baseURL, botID)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	fmt.Printf("Watching escalations for %s\n", botID)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var evt escalationEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			fmt.Fprintf(os.Stderr, "unmarshal error: %v\n", err)
			continue
		}
		fmt.Printf("[%s] session %s: %s\n", evt.Type, evt.SessionID, evt.Message)
	}
}

// operatorFeedURL turns the http base address into the websocket feed URL.
func operatorFeedURL(base, chatbotID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/operators/ws"
	u.RawQuery = url.Values{"chatbot_id": {chatbotID}}.Encode()
	return u.String(), nil
}
