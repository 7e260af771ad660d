package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/subhakanta156/nobr-project/internal/answer"
	"github.com/subhakanta156/nobr-project/internal/config"
	"github.com/subhakanta156/nobr-project/internal/db"
	"github.com/subhakanta156/nobr-project/internal/repository"
	"github.com/subhakanta156/nobr-project/internal/service"
	"github.com/subhakanta156/nobr-project/internal/view"
)

// terminalView implementa service.View sobre stdout.
type terminalView struct{}

func (terminalView) SetInputEnabled(enabled bool) {}

func (terminalView) ShowTyping() {
	fmt.Println("assistant is typing...")
}

func (terminalView) HideTyping() {}

func (terminalView) RenderSession(sv view.SessionView) {
	fmt.Printf("===== %s =====\n", sv.Title)
	for _, msg := range sv.Messages {
		fmt.Printf("[%s] %s\n", msg.Sender, msg.Content)
	}
}

func (terminalView) ShowWelcome() {
	fmt.Println("===== New Chat =====")
	fmt.Println("Ask me about flats, localities or budgets.")
}

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	var sessionRepo repository.SessionRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			log.Fatal(err)
		}
		sessionRepo = repository.NewPgSessionRepository(pool)
	} else {
		sessionRepo = repository.NewMemorySessionRepository()
	}

	manager := service.NewSessionManager(logger, sessionRepo, nil)
	manager.MarkReady()

	chatbotClient := answer.NewHTTPClient(cfg.ChatbotBaseURL, logger)
	chatSvc := service.NewChatService(
		logger,
		manager,
		chatbotClient,
		terminalView{},
		chatbotClient.BaseURL(),
		time.Duration(cfg.GreetingDelayMS)*time.Millisecond,
	)

	fmt.Println("NoBrokerage property chat. Commands: /new /list /open N /delete N /quit")
	terminalView{}.ShowWelcome()

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/new":
			if _, err := chatSvc.NewChat(ctx); err != nil {
				fmt.Println("error:", err)
			}
		case line == "/list":
			printHistory(ctx, chatSvc)
		case strings.HasPrefix(line, "/open "):
			if id, ok := sessionIDAt(ctx, chatSvc, strings.TrimPrefix(line, "/open ")); ok {
				if _, err := chatSvc.SwitchSession(ctx, id); err != nil {
					fmt.Println("error:", err)
				}
			}
		case strings.HasPrefix(line, "/delete "):
			if id, ok := sessionIDAt(ctx, chatSvc, strings.TrimPrefix(line, "/delete ")); ok {
				if err := chatSvc.DeleteSession(ctx, id); err != nil {
					fmt.Println("error:", err)
				}
			}
		default:
			if _, err := chatSvc.Send(ctx, line); err != nil {
				if errors.Is(err, service.ErrSessionChanged) {
					fmt.Println("reply discarded: session changed")
					continue
				}
				fmt.Println("error:", err)
			}
		}
	}
}

func printHistory(ctx context.Context, chatSvc *service.ChatService) {
	summaries, err := chatSvc.History(ctx)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if len(summaries) == 0 {
		fmt.Println("no chats yet")
		return
	}
	for i, s := range summaries {
		fmt.Printf("[%d] %s\n", i+1, s.Title)
	}
}

func sessionIDAt(ctx context.Context, chatSvc *service.ChatService, arg string) (string, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		fmt.Println("expected a chat number, see /list")
		return "", false
	}
	summaries, err := chatSvc.History(ctx)
	if err != nil {
		fmt.Println("error:", err)
		return "", false
	}
	if idx < 1 || idx > len(summaries) {
		fmt.Println("no such chat")
		return "", false
	}
	return summaries[idx-1].ID, true
}
