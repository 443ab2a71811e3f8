package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"remi/internal/api"
	"remi/internal/extract"
	"remi/internal/logging"
	"remi/internal/note"
)

var (
	category = color.New(color.FgMagenta, color.Bold).SprintFunc()
	ready    = color.New(color.FgYellow).SprintFunc()
	pending  = color.New(color.FgHiBlack).SprintFunc()
	dim      = color.New(color.FgHiBlack).SprintFunc()
)

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List your reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(flagDebug)

			cfg, st, err := loadEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			client := api.NewClient(cfg.APIBaseURL, st)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			notes, err := client.MyNotes(ctx)
			if err != nil {
				return err
			}
			if len(notes) == 0 {
				fmt.Println(dim("No reminders yet"))
				return nil
			}

			for _, n := range notes {
				fmt.Printf("%s %s  %s\n", category(n.CategoryType), n.Text, dim(n.ID.String()))
				for _, trig := range n.Triggers {
					fmt.Printf("    %s\n", formatTrigger(trig))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(remindersEditCmd())
	return cmd
}

func remindersEditCmd() *cobra.Command {
	var categoryType, text, triggerID, triggerValue string

	cmd := &cobra.Command{
		Use:   "edit <note-id>",
		Short: "Edit a reminder's category, text or trigger value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(flagDebug)

			noteID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid note id %q: %w", args[0], err)
			}

			cfg, st, err := loadEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			// Fetch the current note so omitted fields keep their values.
			notes, err := api.NewClient(cfg.APIBaseURL, st).MyNotes(ctx)
			if err != nil {
				return err
			}
			var current *note.Note
			for i := range notes {
				if notes[i].ID == noteID {
					current = &notes[i]
					break
				}
			}
			if current == nil {
				return fmt.Errorf("no reminder with id %s", noteID)
			}

			if categoryType == "" {
				categoryType = current.CategoryType
			}
			if text == "" {
				text = current.Text
			}

			var trigID uuid.UUID
			switch {
			case triggerID != "":
				trigID, err = uuid.Parse(triggerID)
				if err != nil {
					return fmt.Errorf("invalid trigger id %q: %w", triggerID, err)
				}
			case len(current.Triggers) > 0:
				trigID = current.Triggers[0].ID
			case triggerValue != "":
				return fmt.Errorf("reminder %s has no triggers to update", noteID)
			}

			client := extract.NewClient(cfg.ExtractionBaseURL, st)
			if err := client.Update(ctx, noteID, categoryType, text, trigID, triggerValue); err != nil {
				return err
			}
			color.Green("Updated %s", text)
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryType, "category", "", "new category type")
	cmd.Flags().StringVar(&text, "text", "", "new reminder text")
	cmd.Flags().StringVar(&triggerID, "trigger", "", "trigger id to update (default: first trigger)")
	cmd.Flags().StringVar(&triggerValue, "value", "", "new trigger value")

	return cmd
}

func formatTrigger(trig note.Trigger) string {
	label := trig.Type
	switch trig.CanonicalType() {
	case note.TriggerTime:
		if trig.Time != nil {
			label = fmt.Sprintf("%s %s", trig.Type, trig.Time.Format("02.01.2006 15:04"))
		}
	case note.TriggerLocation:
		if trig.Location != nil {
			label = fmt.Sprintf("%s %s", trig.Type, *trig.Location)
		}
	}
	if trig.IsReady {
		return ready("⏰ " + label)
	}
	return pending("· " + label)
}
