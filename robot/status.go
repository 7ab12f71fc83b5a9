package robot

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"go.viam.com/superstructure/components/intake"
	"go.viam.com/superstructure/components/mechanism"
	"go.viam.com/superstructure/prefs"
	"go.viam.com/superstructure/superstructure"
)

// Snapshot is everything a dashboard shows, taken at one instant.
type Snapshot struct {
	Tick           int64
	Enabled        bool
	Running        []string
	Superstructure superstructure.Status
	Mechanisms     []mechanism.Telemetry
	Intake         intake.Telemetry
	Preferences    prefs.Snapshot
}

// Status returns a snapshot of the robot.
func (r *Robot) Status() Snapshot {
	return Snapshot{
		Tick:           r.ticks.Load(),
		Enabled:        r.scheduler.Enabled(),
		Running:        r.scheduler.Running(),
		Superstructure: r.ss.Status(),
		Mechanisms: []mechanism.Telemetry{
			r.elevator.Telemetry(),
			r.pivot.Telemetry(),
			r.wrist.Telemetry(),
		},
		Intake:      r.intake.Telemetry(),
		Preferences: r.store.Snapshot(),
	}
}

// RenderStatus writes s as tables.
func RenderStatus(w io.Writer, s Snapshot) error {
	st := s.Superstructure
	summary := table.NewWriter()
	summary.SetTitle(fmt.Sprintf("tick %d", s.Tick))
	summary.AppendRows([]table.Row{
		{"Enabled", s.Enabled},
		{"Phase", st.Phase},
		{"Current", st.Current},
		{"Requested", optionalState(st.Requested)},
		{"Leg", optionalState(st.Leg)},
		{"Last result", st.LastResult},
		{"Commands", strings.Join(s.Running, ", ")},
	})

	axes := table.NewWriter()
	axes.AppendHeader(table.Row{"Axis", "Mode", "Position", "Target", "At target", "Homed", "Current (A)"})
	for _, m := range s.Mechanisms {
		target := "-"
		if m.HasTarget {
			target = fmt.Sprintf("%.2f %s", m.Target, m.Unit)
		}
		axes.AppendRow(table.Row{
			m.Name,
			m.Mode,
			fmt.Sprintf("%.2f %s", m.Position, m.Unit),
			target,
			m.AtTarget,
			m.Homed,
			fmt.Sprintf("%.1f", m.RecentCurrent),
		})
	}
	axes.AppendSeparator()
	axes.AppendRow(table.Row{s.Intake.Name, "open_loop", fmt.Sprintf("%.2f", s.Intake.Power), "-", "", "",
		fmt.Sprintf("%.1f", s.Intake.RecentCurrent)})

	p := s.Preferences
	preferences := table.NewWriter()
	preferences.AppendHeader(table.Row{"Score level", "Pickup mode", "Desired", "Held", "Need home"})
	preferences.AppendRow(table.Row{
		optional(p.ScoreLevelSet, p.ScoreLevel),
		optional(p.PickupModeSet, p.PickupMode),
		p.DesiredPiece,
		p.HeldPiece,
		p.NeedHome,
	})

	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n", summary.Render(), axes.Render(), preferences.Render())
	return err
}

// RenderStates returns a table of every named state and the states it connects to directly.
func RenderStates() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"State", "Elevator (m)", "Pivot (deg)", "Wrist (deg)", "Intake", "Neighbors"})
	for _, s := range superstructure.States() {
		neighbors := lo.Map(superstructure.Neighbors(s), func(n *superstructure.State, _ int) string {
			return n.Name
		})
		t.AppendRow(table.Row{s.Name, s.Elevator, s.Pivot, s.Wrist, s.Intake, strings.Join(neighbors, ", ")})
	}
	return t.Render()
}

func optionalState(s *superstructure.State) string {
	if s == nil {
		return "-"
	}
	return s.Name
}

func optional(set bool, v fmt.Stringer) string {
	if !set {
		return "unset"
	}
	return v.String()
}
