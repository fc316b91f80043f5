package tools

import (
	"encoding/json"
	"time"

	"github.com/tliron/commonlog"
)

// Logger records tool execution during a function-calling loop
type Logger interface {
	LogToolCall(toolName string, args map[string]any)
	LogToolResult(toolName string, result ToolResult, duration time.Duration)
	LogToolError(toolName string, err error)
	LogRoundStart(round int, calls int)
	LogLoopComplete(rounds int, duration time.Duration, success bool)
}

// DefaultLogger writes tool activity to a commonlog logger
type DefaultLogger struct {
	verbose bool
	log     commonlog.Logger
}

// NewDefaultLogger creates a logger under the scribe.tools name. In verbose mode
// full result payloads are logged at debug level.
func NewDefaultLogger(verbose bool) *DefaultLogger {
	return &DefaultLogger{
		verbose: verbose,
		log:     commonlog.GetLogger("scribe.tools"),
	}
}

func (l *DefaultLogger) LogToolCall(toolName string, args map[string]any) {
	argsJSON, _ := json.Marshal(args)
	l.log.Infof("CALL: %s with args: %s", toolName, string(argsJSON))
}

func (l *DefaultLogger) LogToolResult(toolName string, result ToolResult, duration time.Duration) {
	status := "SUCCESS"
	if !result.Success {
		status = "FAILED"
	}

	l.log.Infof("RESULT: %s [%s] (%.3fs) Meta: %v", toolName, status, duration.Seconds(), result.Meta)
	if l.verbose {
		dataJSON, _ := json.MarshalIndent(result.Data, "", "  ")
		l.log.Debugf("DATA: %s\n%s", toolName, string(dataJSON))
	}
	if result.Error != "" {
		l.log.Errorf("%s - %s", toolName, result.Error)
	}
}

func (l *DefaultLogger) LogToolError(toolName string, err error) {
	l.log.Errorf("%s - %v", toolName, err)
}

func (l *DefaultLogger) LogRoundStart(round int, calls int) {
	l.log.Infof("ROUND %d: executing %d tool calls", round, calls)
}

func (l *DefaultLogger) LogLoopComplete(rounds int, duration time.Duration, success bool) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	l.log.Infof("LOOP COMPLETE: [%s] after %d rounds (%.3fs)", status, rounds, duration.Seconds())
}

// NullLogger discards everything
type NullLogger struct{}

func (n *NullLogger) LogToolCall(toolName string, args map[string]any)                   {}
func (n *NullLogger) LogToolResult(toolName string, result ToolResult, d time.Duration) {}
func (n *NullLogger) LogToolError(toolName string, err error)                           {}
func (n *NullLogger) LogRoundStart(round int, calls int)                                {}
func (n *NullLogger) LogLoopComplete(rounds int, d time.Duration, success bool)         {}
