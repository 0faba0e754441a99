package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/DavidGamba/go-getoptions"
	"github.com/NordCoder/ordotrack/internal/alert"
	"github.com/NordCoder/ordotrack/internal/backup"
	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	kafkaRepo "github.com/NordCoder/ordotrack/internal/repository/kafka"
	pg "github.com/NordCoder/ordotrack/internal/repository/postgres"
	"go.uber.org/zap"
)

func (c *cli) list(ctx context.Context, _ *getoptions.GetOpt, _ []string) error {
	if err := c.open(ctx, nil); err != nil {
		return err
	}
	rows := c.tr.Rows(time.Now())
	if len(rows) == 0 {
		fmt.Fprintln(c.out, "Aucune ordonnance suivie.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOM\tORDONNANCE\tEXPIRATION\tJOURS\t")
	for _, r := range rows {
		mark := ""
		if r.Flagged {
			mark = "!"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Label, r.Expiry, r.DaysLeft, mark)
	}
	return tw.Flush()
}

func (c *cli) add(ctx context.Context, _ *getoptions.GetOpt, _ []string) error {
	days, err := prescription.ParseDays(c.days)
	if err != nil {
		return err
	}
	if err := c.open(ctx, nil); err != nil {
		return err
	}
	r, err := c.tr.Add(ctx, c.name, c.label, days)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, r.ID)
	return nil
}

func (c *cli) delete(ctx context.Context, _ *getoptions.GetOpt, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: ordoctl delete <id>")
	}
	if err := c.open(ctx, nil); err != nil {
		return err
	}
	return c.tr.Delete(ctx, args[0])
}

func (c *cli) reset(ctx context.Context, _ *getoptions.GetOpt, _ []string) error {
	if err := c.open(ctx, nil); err != nil {
		return err
	}
	if !c.yes {
		ok, err := c.terminal("Supprimer toutes les ordonnances ?").Prompt(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(c.errOut, "Annulé.")
			return nil
		}
	}
	return c.tr.Reset(ctx)
}

func (c *cli) export(ctx context.Context, _ *getoptions.GetOpt, _ []string) error {
	if err := c.open(ctx, nil); err != nil {
		return err
	}
	b, err := c.tr.Export()
	if err != nil {
		return err
	}
	path := c.outPath
	if path == "" {
		path = backup.FileName
	}
	if path == "-" {
		_, err := c.out.Write(append(b, '\n'))
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	fmt.Fprintln(c.errOut, path)
	return nil
}

func (c *cli) importBackup(ctx context.Context, _ *getoptions.GetOpt, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: ordoctl import <file>")
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if err := c.open(ctx, nil); err != nil {
		return err
	}
	n, err := c.tr.Import(ctx, b)
	if err != nil {
		if errors.Is(err, prescription.ErrInvalidBackupFormat) {
			return fmt.Errorf("fichier de sauvegarde invalide: %w", err)
		}
		return err
	}
	fmt.Fprintf(c.out, "%d ordonnance(s) importée(s)\n", n)
	return nil
}

func (c *cli) check(ctx context.Context, _ *getoptions.GetOpt, _ []string) error {
	if err := c.open(ctx, c.terminal("")); err != nil {
		return err
	}
	if _, err := c.tr.RequestPermission(ctx); err != nil {
		c.log.Warn("permission request failed", zap.Error(err))
	}
	res, err := c.tr.CheckAndNotify(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d vérifiée(s), %d à échéance, %d alerte(s) envoyée(s), %d échec(s)\n",
		res.Checked, res.Due, res.Sent, res.Failed)
	if res.Due > res.Sent && c.gate.Permission() != prescription.PermissionGranted {
		fmt.Fprintln(c.errOut, "Notifications non autorisées: lancez `ordoctl permission --grant`.")
	}
	return nil
}

func (c *cli) permission(ctx context.Context, _ *getoptions.GetOpt, _ []string) error {
	if c.grant && c.deny {
		return errors.New("--grant and --deny are exclusive")
	}
	var ask alert.Prompter = c.terminal("")
	switch {
	case c.grant:
		ask = alert.StaticPrompter(true)
	case c.deny:
		ask = alert.StaticPrompter(false)
	}
	if err := c.open(ctx, ask); err != nil {
		return err
	}
	p, err := c.tr.RequestPermission(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, p)
	return nil
}

func (c *cli) alerts(ctx context.Context, _ *getoptions.GetOpt, _ []string) error {
	if err := c.openBackend(ctx); err != nil {
		return err
	}
	if c.backend.Journal == nil {
		return errors.New("the alert journal needs store.backend=postgres")
	}
	limit := uint64(0)
	if c.limit > 0 {
		limit = uint64(c.limit)
	}
	entries, err := c.backend.Journal.List(ctx, pg.AlertFilter{RecordID: c.recordID, Limit: limit})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENVOYÉE\tID\tNOM\tORDONNANCE\tJOURS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.SentAt.Local().Format("02/01/2006 15:04"), e.RecordID, e.Name, e.Label, strconv.Itoa(e.DaysLeft))
	}
	return tw.Flush()
}

func (c *cli) tail(ctx context.Context, _ *getoptions.GetOpt, _ []string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	if len(c.cfg.Kafka.Brokers) == 0 || c.cfg.Kafka.Topic == "" {
		return errors.New("kafka.brokers and kafka.topic must be set")
	}
	cons := kafkaRepo.NewConsumer(&kafkaRepo.ConsumerConfig{
		Brokers:       c.cfg.Kafka.Brokers,
		GroupID:       "ordoctl-tail",
		Topic:         c.cfg.Kafka.Topic,
		FromBeginning: c.fromStart,
		Logger:        c.log,
	})
	defer func() { _ = cons.Close() }()

	err := cons.Consume(ctx, kafkaRepo.AlertHandler(func(_ context.Context, a prescription.Alert) error {
		_, err := fmt.Fprintf(c.out, "%s | %s\n", a.Title, a.Body)
		return err
	}))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
