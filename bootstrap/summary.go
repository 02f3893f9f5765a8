package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/mediator/httpx"
	"github.com/kbukum/mediator/mediator"
)

// InfrastructureInfo describes a started infrastructure component.
type InfrastructureInfo struct {
	Name    string
	Details string
}

// BehaviorInfo describes an installed built-in behavior.
type BehaviorInfo struct {
	Name  string
	Order int
}

// Summary tracks and displays what the application wired at startup.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
	behaviors       []BehaviorInfo
	out             io.Writer
}

// NewSummary creates a summary writing to stdout.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		out:         os.Stdout,
	}
}

// SetWriter redirects the summary output.
func (s *Summary) SetWriter(w io.Writer) {
	s.out = w
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackInfrastructure records an infrastructure component.
func (s *Summary) TrackInfrastructure(name, details string) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{Name: name, Details: details})
}

// TrackBehavior records an installed built-in behavior.
func (s *Summary) TrackBehavior(name string, order int) {
	s.behaviors = append(s.behaviors, BehaviorInfo{Name: name, Order: order})
}

// Behaviors returns the installed built-in behaviors in installation order.
func (s *Summary) Behaviors() []BehaviorInfo {
	return slices.Clone(s.behaviors)
}

// Display writes the summary: infrastructure, behaviors, handlers,
// notifications, routes and component health.
func (s *Summary) Display(registry *mediator.Registry, server *httpx.Server, components *Components) {
	w := s.out
	fmt.Fprintf(w, "\n🚀 %s v%s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.infrastructure) > 0 {
		fmt.Fprintf(w, "\n📊 Infrastructure\n")
		for i, inf := range s.infrastructure {
			fmt.Fprintf(w, "   %s %s: %s\n", branch(i, len(s.infrastructure)), inf.Name, inf.Details)
		}
	}

	if len(s.behaviors) > 0 {
		fmt.Fprintf(w, "\n🧅 Behaviors\n")
		for i, b := range s.behaviors {
			fmt.Fprintf(w, "   %s %s (order %d)\n", branch(i, len(s.behaviors)), b.Name, b.Order)
		}
	}

	if registry != nil {
		regs, err := registry.Registrations()
		if err != nil {
			fmt.Fprintf(w, "\n⚠️  Handlers unavailable: %v\n", err)
		} else if len(regs) > 0 {
			fmt.Fprintf(w, "\n🎯 Handlers (%d)\n", len(regs))
			for i, r := range regs {
				fmt.Fprintf(w, "   %s [%s] %s → %s\n", branch(i, len(regs)), r.Kind(), r.RequestType(), r.Handler())
			}
		}

		notifications := registry.Notifications()
		if len(notifications) > 0 {
			names := make([]string, 0, len(notifications))
			for n := range notifications {
				names = append(names, n)
			}
			slices.Sort(names)
			fmt.Fprintf(w, "\n📨 Notifications\n")
			for i, n := range names {
				fmt.Fprintf(w, "   %s %s → %s\n", branch(i, len(names)), n, strings.Join(notifications[n], ", "))
			}
		}
	}

	if server != nil {
		routes := server.Engine().Routes()
		if len(routes) > 0 {
			fmt.Fprintf(w, "\n🌐 Routes (%d) on %s\n", len(routes), server.Addr())
			for i, r := range routes {
				fmt.Fprintf(w, "   %s %-7s %s\n", branch(i, len(routes)), r.Method, r.Path)
			}
		}
	}

	if components != nil {
		failures := components.Check(context.Background())
		names := components.Names()
		if len(names) > 0 {
			fmt.Fprintf(w, "\n🏥 Components\n")
			for i, name := range names {
				icon, msg := "✅", ""
				if err, ok := failures[name]; ok {
					icon, msg = "❌", ": "+err.Error()
				}
				fmt.Fprintf(w, "   %s %s %s%s\n", branch(i, len(names)), icon, name, msg)
			}
		}
	}

	fmt.Fprintf(w, "\n")
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
