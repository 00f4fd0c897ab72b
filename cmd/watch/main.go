package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"vibecheck/client"
	presence "vibecheck/internal/pkg/presence/domain"
)

func main() {
	log.SetFlags(0)

	var (
		serverURL string
		name      string
		vibe      string
	)

	cmd := &cobra.Command{
		Use:           "watch",
		Short:         "Join the mood board from a terminal and watch it live.",
		Args:          cobra.ExactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), serverURL, name, vibe)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&serverURL, "server", "s", "http://localhost:8080", "base URL of the presence server")
	fs.StringVarP(&name, "name", "n", "", "display name to join as (required)")
	fs.StringVar(&vibe, "vibe", "", "initial quadrant (high-pleasant, high-unpleasant, low-pleasant, low-unpleasant)")
	_ = cmd.MarkFlagRequired("name")

	cobra.CheckErr(cmd.Execute())
}

func run(ctx context.Context, serverURL, name, vibe string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.New(client.Config{ServerURL: serverURL})
	if err != nil {
		return err
	}

	if err := c.Join(ctx, name); err != nil {
		return err
	}
	log.Printf("joined as %q (id %s)", name, c.ID())

	if vibe != "" {
		v, err := presence.ParseVibe(vibe)
		if err != nil {
			c.Leave(ctx)
			return err
		}
		c.SetVibe(ctx, v)
	}

	for {
		select {
		case <-ctx.Done():
			// Announce the leave with a fresh context; ctx is already done.
			c.Leave(context.Background())
			log.Printf("left the board")
			return nil
		case msg := <-c.Messages():
			log.Printf(">>> ping from %s: %s", msg.FromName, msg.Text)
		case <-c.Changed():
			printBoard(c)
		}
	}
}

func printBoard(c *client.Client) {
	users := c.Users()

	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("--- %d online ---\n", len(users))
	for _, id := range ids {
		u := users[id]
		quadrant := "unset"
		if u.Vibe != nil {
			quadrant = string(*u.Vibe)
		}
		marker := " "
		if id == c.ID() {
			marker = "*"
		}
		fmt.Printf("%s %-20s %s\n", marker, u.Name, quadrant)
	}
}
