package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"logo-workers/internal/common/llm"
	"logo-workers/internal/common/logger"
	"logo-workers/internal/dialogue"
	"logo-workers/internal/models"
	classifyintent "logo-workers/internal/workers/ai-conversation/classify-intent"
	extractsearchquery "logo-workers/internal/workers/ai-conversation/extract-search-query"
	composeprompt "logo-workers/internal/workers/logo-agent/compose-prompt"
)

// history turns are passed as repeated --user / --assistant flags and
// interleaved in the order user, assistant, user, ...
func historyFrom(users, assistants []string) []llm.Message {
	var out []llm.Message
	for i := 0; i < len(users) || i < len(assistants); i++ {
		if i < len(users) {
			out = append(out, llm.Message{Role: llm.RoleUser, Content: users[i]})
		}
		if i < len(assistants) {
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: assistants[i]})
		}
	}
	return out
}

func classifyCmd(base func() logger.Logger) *cobra.Command {
	var users, assistants []string
	cmd := &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a message with the pattern classifier",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := classifyintent.NewHandler(classifyintent.LoadConfig(), nil, &classifyLog{base()})
			result := h.FallbackClassify(strings.Join(args, " "), historyFrom(users, assistants))
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringArrayVar(&users, "user", nil, "Earlier user turn (repeatable)")
	cmd.Flags().StringArrayVar(&assistants, "assistant", nil, "Earlier assistant turn (repeatable)")
	return cmd
}

func extractCmd(base func() logger.Logger) *cobra.Command {
	var users, assistants []string
	cmd := &cobra.Command{
		Use:   "extract <message>",
		Short: "Extract the search query a message implies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := extractsearchquery.NewHandler(extractsearchquery.LoadConfig(), nil, &extractLog{base()})
			query, ok := h.Extract(cmd.Context(), strings.Join(args, " "), historyFrom(users, assistants))
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"query": query,
				"found": ok,
			})
		},
	}
	cmd.Flags().StringArrayVar(&users, "user", nil, "Earlier user turn (repeatable)")
	cmd.Flags().StringArrayVar(&assistants, "assistant", nil, "Earlier assistant turn (repeatable)")
	return cmd
}

func composeCmd(base func() logger.Logger) *cobra.Command {
	var refinement string
	var markdown bool
	cmd := &cobra.Command{
		Use:   "compose <request>",
		Short: "Build a logo preview from a request without design search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := composeprompt.LoadConfig()
			cfg.DesignSearch = false
			h := composeprompt.NewHandler(cfg, nil, &composeLog{base()})

			preview, err := h.Preview(cmd.Context(), strings.Join(args, " "), refinement)
			if err != nil {
				return err
			}
			if markdown {
				text := preview.Markdown
				if text == "" {
					text = composeprompt.FormatPreview(preview)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}
			return printJSON(cmd.OutOrStdout(), preview)
		},
	}
	cmd.Flags().StringVar(&refinement, "refine", "", "Refinement appended to the request")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print the chat preview text instead of JSON")
	return cmd
}

func replyCmd() *cobra.Command {
	var state string
	var results int
	cmd := &cobra.Command{
		Use:   "reply <message>",
		Short: "Interpret a reply against a pending preview or photo selection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var offer dialogue.PendingOffer
			switch state {
			case "preview":
				offer = dialogue.NewPreviewOffer(models.GenerationPreview{})
			case "selection":
				offer = dialogue.NewSelectionOffer(models.SearchSelection{
					Results: make([]models.SearchResult, results),
				})
			default:
				return fmt.Errorf("--state must be preview or selection, got %q", state)
			}

			reply := dialogue.Interpret(&offer, strings.Join(args, " "))
			out := map[string]interface{}{
				"state": offer.State(),
				"move":  reply.Move,
			}
			if reply.Move == dialogue.MoveSelect {
				out["index"] = reply.Index + 1
			}
			if reply.Refinement != "" {
				out["refinement"] = reply.Refinement
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&state, "state", "preview", "Pending offer: preview or selection")
	cmd.Flags().IntVar(&results, "results", 5, "Number of photo results in the selection")
	return cmd
}

type classifyLog struct{ logger.Logger }

func (l *classifyLog) With(fields map[string]interface{}) classifyintent.Logger {
	return &classifyLog{l.Logger.With(fields)}
}

type extractLog struct{ logger.Logger }

func (l *extractLog) With(fields map[string]interface{}) extractsearchquery.Logger {
	return &extractLog{l.Logger.With(fields)}
}

type composeLog struct{ logger.Logger }

func (l *composeLog) With(fields map[string]interface{}) composeprompt.Logger {
	return &composeLog{l.Logger.With(fields)}
}
