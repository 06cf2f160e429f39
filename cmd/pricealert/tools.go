package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/raykavin/pricealert/pkg/command"
	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/instrument"
	"github.com/raykavin/pricealert/pkg/message"
)

func buildParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [command text]",
		Short: "Parse a command and print its canonical form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printParsed(cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
}

func printParsed(w io.Writer, text string) error {
	payload, err := command.Parse(text)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\n%+v\n", command.Render(payload), payload)
	return err
}

func buildSubsCmd() *cobra.Command {
	subsCmd := &cobra.Command{
		Use:   "subs",
		Short: "List the active subscriptions of a chat",
		RunE:  runSubs,
	}

	subsCmd.Flags().Int64VarP(&chatID, "chat", "u", 0, "Telegram chat id")
	subsCmd.MarkFlagRequired("chat")

	return subsCmd
}

func runSubs(cmd *cobra.Command, _ []string) error {
	_, store, _, err := setup()
	if err != nil {
		return err
	}
	defer store.Close()

	var subs []core.Subscription
	err = store.View(cmd.Context(), func(tx core.Tx) error {
		user, err := tx.UserByChatID(chatID)
		if err != nil {
			return err
		}
		subs, err = tx.ActiveSubscriptions(user.ID)
		return err
	})
	if err != nil {
		return err
	}

	writeSubscriptions(cmd.OutOrStdout(), subs)
	return nil
}

// writeSubscriptions renders subscriptions as a table
func writeSubscriptions(w io.Writer, subs []core.Subscription) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Ticker", "Price", "Type", "Armed", "Created"})

	data := make([][]string, 0, len(subs))
	for _, sub := range subs {
		data = append(data, []string{
			strconv.FormatInt(sub.ID, 10),
			sub.InstrumentTicker,
			message.FormatPrice(sub.Price, sub.InstrumentPrecision),
			sub.Type.String(),
			strconv.FormatBool(sub.Armed()),
			sub.CreatedAt.UTC().Format(logTimeFormat),
		})
	}

	table.AppendBulk(data)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})
	table.SetFooter([]string{"", "", "", "", "Total", strconv.Itoa(len(subs))})
	table.Render()
}

func buildSeedCmd() *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Run a file of commands, one per line, on behalf of a chat",
		RunE:  runSeed,
	}

	seedCmd.Flags().Int64VarP(&chatID, "chat", "u", 0, "Telegram chat id")
	seedCmd.Flags().StringVarP(&inputFile, "file", "f", "", "File with one command per line (e.g. ./commands.txt)")
	seedCmd.MarkFlagRequired("chat")
	seedCmd.MarkFlagRequired("file")

	return seedCmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, store, log, err := setup()
	if err != nil {
		return err
	}
	defer store.Close()

	lines, err := readCommands(inputFile)
	if err != nil {
		return err
	}

	src, err := newSource(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	handler := command.NewHandler(store, instrument.NewService(store, log, src))
	user, err := ensureUser(cmd.Context(), store, chatID)
	if err != nil {
		return err
	}

	progressBar := progressbar.Default(int64(len(lines)))
	failed := 0
	for _, line := range lines {
		if err := seedCommand(cmd.Context(), handler, user, line); err != nil {
			log.WithError(err).WithField("command", line).Warn("command failed")
			failed++
		}
		_ = progressBar.Add(1)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d commands, %d failed\n", len(lines), failed)
	return err
}

func seedCommand(ctx context.Context, handler *command.Handler, user core.User, line string) error {
	payload, err := command.Parse(line)
	if err != nil {
		return err
	}
	_, err = handler.Execute(ctx, user, payload)
	return err
}

func readCommands(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// ensureUser returns the user of the chat, registering it when missing
func ensureUser(ctx context.Context, store core.Storage, chatID int64) (core.User, error) {
	var user core.User
	err := store.Update(ctx, func(tx core.Tx) error {
		var err error
		user, err = tx.UserByChatID(chatID)
		if !errors.Is(err, core.ErrUserNotFound) {
			return err
		}
		user = core.User{ChatID: chatID, Locale: core.DefaultLocale}
		return tx.CreateUser(&user)
	})
	return user, err
}
