package intake

import (
	"fmt"
	"strings"
)

type Step string

const (
	StepPersonal  Step = "personal"
	StepAddress   Step = "address"
	StepContact   Step = "contact"
	StepDocuments Step = "documents"
	StepProofs    Step = "proofs"
)

func (s Step) Title() string {
	switch s {
	case StepPersonal:
		return "Personal Information"
	case StepAddress:
		return "Address"
	case StepContact:
		return "Contact Details"
	case StepDocuments:
		return "Identity Documents"
	case StepProofs:
		return "Identity Proofs"
	default:
		return string(s)
	}
}

// Steps is the ordered configuration of a wizard.
type Steps []Step

var (
	FourStepFlow = Steps{StepPersonal, StepAddress, StepDocuments, StepProofs}
	FiveStepFlow = Steps{StepPersonal, StepAddress, StepContact, StepDocuments, StepProofs}
)

// FlowFor returns the five step flow when contact details are collected and the four step flow otherwise.
func FlowFor(withContact bool) Steps {
	if withContact {
		return FiveStepFlow
	}
	return FourStepFlow
}

func (s Steps) At(index int) (Step, error) {
	if index < 0 || index >= len(s) {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrStepOutOfRange, index, len(s))
	}
	return s[index], nil
}

func (s Steps) IndexOf(step Step) int {
	for i, st := range s {
		if st == step {
			return i
		}
	}
	return -1
}

func (s Steps) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("wizard needs at least one step")
	}
	seen := make(map[Step]bool, len(s))
	for _, st := range s {
		switch st {
		case StepPersonal, StepAddress, StepContact, StepDocuments, StepProofs:
		default:
			return fmt.Errorf("unknown step %q", st)
		}
		if seen[st] {
			return fmt.Errorf("step %q configured twice", st)
		}
		seen[st] = true
	}
	return nil
}

func (s Steps) String() string {
	names := make([]string, 0, len(s))
	for _, st := range s {
		names = append(names, string(st))
	}
	return strings.Join(names, ",")
}
