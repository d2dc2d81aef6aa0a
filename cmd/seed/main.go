// Seeds a local data directory with demo accounts, a channel, and a short
// conversation so the server and viewer have something to show.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/repositories"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
)

var demoLines = []struct {
	author string
	text   string
}{
	{"alice", "Welcome to #general!"},
	{"bob", "Hey, nice to be here."},
	{"alice", "The search index picks these up too, try /search badger"},
	{"bob", "Storing messages in badger with padded timestamp keys, neat."},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	badgerPath := flag.String("db", "./data/badger", "badger data directory")
	blugePath := flag.String("index", "./data/bluge", "bluge index directory")
	password := flag.String("password", "Sup3rSecret", "password for the demo accounts")
	flag.Parse()

	log := logs.GetLoggerFromString("INFO")

	db, err := badger.Open(badger.DefaultOptions(*badgerPath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer db.Close()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(*blugePath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer indexWriter.Close()

	users := repositories.NewUserRepository(db)
	channels := repositories.NewChannelRepository(db)
	messages := repositories.NewMessageRepository(db, log)
	index := repositories.NewMessageIndex(indexWriter, log)

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}

	ids := make(map[string]domain.UserID)
	for i, username := range []string{"alice", "bob"} {
		u := domain.User{
			ID:           domain.UserID(uuid.NewString()),
			Username:     username,
			Email:        username + "@example.com",
			Phone:        fmt.Sprintf("+3361234567%d", i),
			PasswordHash: hash,
			Verified:     true,
			CreatedAt:    time.Now().UTC(),
		}
		if err := users.Create(u); err != nil {
			return fmt.Errorf("seeding user %s: %w", username, err)
		}
		ids[username] = u.ID
		log.Info("User created", "username", username, "email", u.Email)
	}

	channel := domain.Channel{
		ID:        domain.ChannelID(uuid.NewString()),
		Name:      "general",
		CreatedBy: ids["alice"],
		Members:   []domain.UserID{ids["alice"], ids["bob"]},
		CreatedAt: time.Now().UTC(),
	}
	if err := channels.Create(channel); err != nil {
		return fmt.Errorf("seeding channel: %w", err)
	}
	log.Info("Channel created", "name", channel.Name, "id", channel.ID)

	ctx := context.Background()
	at := time.Now().UTC().Add(-time.Duration(len(demoLines)) * time.Minute)
	for _, line := range demoLines {
		m := domain.Message{
			ID:         uuid.New(),
			Channel:    channel.ID,
			Sender:     ids[line.author],
			SenderName: line.author,
			Text:       line.text,
			CreatedAt:  at,
		}
		if err := messages.Create(ctx, m); err != nil {
			return fmt.Errorf("seeding message: %w", err)
		}
		if err := index.Index(m); err != nil {
			return fmt.Errorf("indexing message: %w", err)
		}
		at = at.Add(time.Minute)
	}
	log.Info("Conversation seeded", "messages", len(demoLines),
		"login", "alice@example.com", "password", *password)

	return nil
}
