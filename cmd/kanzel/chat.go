package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

var (
	promptColor = color.New(color.FgCyan, color.Bold).SprintFunc()
	answerColor = color.New(color.FgGreen).SprintFunc()
	errorColor  = color.New(color.FgRed).SprintFunc()
)

// chatCmd asks a single question, or starts an interactive session when
// no question is given.
var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the model a question with tool access",
	Long: `Sends a question to the chat endpoint with the filtered tool
catalog attached. Tool calls requested by the model are executed against
the tool-resource server and fed back until a final answer is produced.

Without a question, starts an interactive session reading from stdin.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newUpstreamClient()
		eng, err := newEngine(client)
		if err != nil {
			return err
		}

		if len(args) > 0 {
			return ask(cmd, eng, strings.Join(args, " "), nil)
		}

		// Interactive session: the transcript carries over between turns.
		var history []openai.ChatCompletionMessage
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Fprint(cmd.OutOrStdout(), promptColor("> "))
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				return nil
			}
			if err := ask(cmd, eng, line, &history); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), errorColor(err.Error()))
			}
		}
	},
}

// ask runs one question through the engine and prints the answer. When
// history is non-nil, the exchange is appended to it.
func ask(cmd *cobra.Command, eng completer, question string, history *[]openai.ChatCompletionMessage) error {
	var messages []openai.ChatCompletionMessage
	if history != nil {
		messages = append(messages, *history...)
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	resp, err := eng.Complete(cmd.Context(), openai.ChatCompletionRequest{
		Messages: messages,
	})
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("endpoint returned no choices")
	}

	answer := resp.Choices[0].Message
	fmt.Fprintln(cmd.OutOrStdout(), answerColor(answer.Content))

	if history != nil {
		*history = append(messages, answer)
	}
	return nil
}

// completer is the slice of the engine the chat command needs.
type completer interface {
	Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
