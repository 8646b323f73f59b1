package cmd

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nudge/internal/config"
	"nudge/pkg/protocol"
)

var (
	queryAddr    string
	queryModel   string
	queryTimeout time.Duration
)

// queryCmd is a one-shot client: one newline-terminated request, one
// newline-terminated response, rendered for a human.
var queryCmd = &cobra.Command{
	Use:   "query <command>",
	Short: "Ask the server for suggestions",
	Example: `  nudge query "git stau"
  nudge query --addr localhost:9999 "docker ps"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryAddr, "addr", "", "server address (defaults to configured server.host/server.port)")
	queryCmd.Flags().StringVar(&queryModel, "model", "", "model label to echo through the server")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 2*time.Second, "dial and response timeout")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	addr := queryAddr
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	resp, err := fetchSuggestions(addr, strings.Join(args, " "), queryModel, queryTimeout)
	if err != nil {
		return err
	}

	render(resp, term.IsTerminal(int(os.Stdout.Fd())))
	return nil
}

// fetchSuggestions performs one request/response exchange.
func fetchSuggestions(addr, query, model string, timeout time.Duration) (*protocol.Response, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server at %s: %w", addr, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	payload, err := json.Marshal(protocol.Request{Cmd: query, Model: model})
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("no response from server: %w", err)
	}

	var errResp protocol.ErrorResponse
	if json.Unmarshal(line, &errResp) == nil && errResp.Error != "" {
		return nil, fmt.Errorf("server error: %s", errResp.Error)
	}

	var resp protocol.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return &resp, nil
}

var (
	sourceStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Width(10)
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	confidenceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	reasonStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
)

func render(resp *protocol.Response, styled bool) {
	if len(resp.Suggestions) == 0 {
		fmt.Println("no suggestions")
		return
	}
	for _, s := range resp.Suggestions {
		if !styled {
			fmt.Printf("%-10s %-40s %.2f  %s\n", s.Source, s.Suggestion, s.Confidence, s.Reason)
			continue
		}
		fmt.Printf("%s %s %s\n           %s\n",
			sourceStyle.Render(string(s.Source)),
			suggestionStyle.Render(s.Suggestion),
			confidenceStyle.Render(fmt.Sprintf("(%.2f)", s.Confidence)),
			reasonStyle.Render(s.Reason),
		)
	}
}
