// Command gatewaytop is a terminal dashboard that polls a running
// gatekeeper instance's /_health endpoint and renders live per-provider
// circuit-breaker state. It is purely supplemental: the gateway itself
// runs and is fully testable without it.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lynn4am/gatekeeper/internal/dashboard"
)

func main() {
	addr := "http://localhost:8080/_health"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	p := tea.NewProgram(dashboard.New(addr))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "gatewaytop: %v\n", err)
		os.Exit(1)
	}
}
