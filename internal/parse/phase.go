package parse

import "strings"

// Phase is the simulation phase a log message belongs to.
type Phase string

const (
	PhaseNone    Phase = "" // outside any tracked phase
	PhaseStart   Phase = "start"
	PhaseSetup   Phase = "setup"
	PhaseWait    Phase = "wait"
	PhaseComm    Phase = "comm"
	PhaseStellar Phase = "stellar"
	PhaseSpectra Phase = "spectra"
	PhaseDust    Phase = "dust"
	PhaseWrite   Phase = "write"
)

// Phases lists every phase, PhaseNone included.
var Phases = []Phase{PhaseStart, PhaseSetup, PhaseWait, PhaseComm, PhaseStellar, PhaseSpectra, PhaseDust, PhaseWrite, PhaseNone}

func (p Phase) String() string {
	if p == PhaseNone {
		return "none"
	}
	return string(p)
}

// ParsePhase maps a phase label back to a Phase. "none", "" and "None" map to PhaseNone.
func ParsePhase(s string) (Phase, bool) {
	switch s {
	case "", "none", "None":
		return PhaseNone, true
	}
	for _, p := range Phases {
		if string(p) == s {
			return p, true
		}
	}
	return PhaseNone, false
}

type phaseRule struct {
	phase Phase
	match func(line string) bool
}

func containsAny(markers ...string) func(string) bool {
	return func(line string) bool {
		for _, m := range markers {
			if strings.Contains(line, m) {
				return true
			}
		}
		return false
	}
}

// phaseRules is evaluated in order; the first matching rule decides the phase.
var phaseRules = []phaseRule{
	{PhaseStart, containsAny("Starting simulation")},
	{PhaseNone, func(line string) bool {
		if strings.Contains(line, "Finished the") && strings.Contains(line, "-stage dust self-absorption cycle") {
			return true
		}
		return containsAny(
			"Finished setup",
			"Finished the stellar emission phase",
			"Finished communication of the absorbed luminosities",
			"Finished communication of the dust emission spectra",
			"Finished the dust emission phase",
			"Finished writing results",
			// wording of the communication end messages differs between SKIRT versions
			"Finished communication of",
		)(line)
	}},
	{PhaseSetup, containsAny(
		"Starting setup",
		"Finished communication of the dust densities",
	)},
	{PhaseWait, containsAny(
		"Waiting for other processes to finish the calculation of the dust cell densities",
		"Waiting for other processes to finish the setup",
		"Waiting for other processes to finish the stellar emission phase",
		"Waiting for other processes to finish the emission spectra calculation",
		"Waiting for other processes to finish this self-absorption cycle",
		"Waiting for other processes to finish the dust emission phase",
	)},
	{PhaseComm, containsAny(
		"Starting communication of the dust densities",
		"Starting communication of the absorbed luminosities",
		"Starting communication of the dust emission spectra",
		"Starting communication of",
	)},
	{PhaseStellar, containsAny("Starting the stellar emission phase")},
	{PhaseSpectra, containsAny("Library entries in use")},
	{PhaseDust, containsAny("Dust emission spectra calculated")},
	{PhaseWrite, containsAny("Starting writing results")},
}

// NextPhase returns the phase that is active after line, given the phase that was
// active before it. Lines that match no marker keep the current phase.
func NextPhase(line string, current Phase) Phase {
	for _, r := range phaseRules {
		if r.match(line) {
			return r.phase
		}
	}
	return current
}
