package engine

import (
	"errors"
	"testing"

	"github.com/ykoski/hfsm/pkg/api"
)

// wizard builds a parent with one substate wired through EnterSub/Return.
// trail records every hook in execution order.
func wizard(trail *[]string, returnPayload any) (parent *api.State) {
	var sub *api.State

	parent = api.NewState(api.StateSpec{
		Name: "form",
		Handlers: map[string]api.Handler{
			"open": func(any) (api.Transition, error) {
				return api.EnterSub{Sub: sub}, nil
			},
		},
		OnEntry:      func() { *trail = append(*trail, "form.entry") },
		BeforeExit:   func() { *trail = append(*trail, "form.exit") },
		OnPreemption: func() { *trail = append(*trail, "form.preempt") },
		OnResume: func(payload any) {
			*trail = append(*trail, "form.resume")
			if payload != returnPayload {
				*trail = append(*trail, "form.badpayload")
			}
		},
	})

	sub = api.NewState(api.StateSpec{
		Name:   "picker",
		Parent: parent,
		Handlers: map[string]api.Handler{
			"pick": func(any) (api.Transition, error) {
				return api.ReturnToParent{}, nil
			},
		},
		OnEntry:    func() { *trail = append(*trail, "picker.entry") },
		BeforeExit: func() { *trail = append(*trail, "picker.exit") },
		ReturnPayload: func() any {
			*trail = append(*trail, "picker.payload")
			return returnPayload
		},
	})
	return parent
}

func TestSubstateRoundTrip(t *testing.T) {
	var trail []string
	parent := wizard(&trail, "choice-a")

	eng := newTestEngine(t, func() *api.State { return parent }, Config{})
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.HandleEvent("open", nil); err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := eng.Active().Name(); got != "picker" {
		t.Fatalf("active state = %q, want picker", got)
	}
	if err := eng.HandleEvent("pick", nil); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if got := eng.Active().Name(); got != "form" {
		t.Fatalf("active state = %q, want form", got)
	}

	// The parent is paused, never exited; the payload is produced before
	// the substate's teardown hook runs.
	want := []string{
		"form.entry",
		"form.preempt",
		"picker.entry",
		"picker.payload",
		"picker.exit",
		"form.resume",
	}
	if len(trail) != len(want) {
		t.Fatalf("trail = %v", trail)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Fatalf("trail[%d] = %q, want %q (all: %v)", i, trail[i], want[i], trail)
		}
	}
}

func TestBubbledEventHandledByParent(t *testing.T) {
	// The substate has no handler for "cancel"; the parent does. The
	// transition still applies to the whole active chain.
	done := api.NewState(api.StateSpec{Name: "done", Final: true})

	var trail []string
	var sub *api.State
	parent := api.NewState(api.StateSpec{
		Name: "form",
		Handlers: map[string]api.Handler{
			"open": func(any) (api.Transition, error) {
				return api.EnterSub{Sub: sub}, nil
			},
			"cancel": func(any) (api.Transition, error) {
				return api.Goto{Next: done}, nil
			},
		},
		BeforeExit: func() { trail = append(trail, "form.exit") },
	})
	sub = api.NewState(api.StateSpec{
		Name:       "picker",
		Parent:     parent,
		BeforeExit: func() { trail = append(trail, "picker.exit") },
	})

	eng := newTestEngine(t, func() *api.State { return parent }, Config{})
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.HandleEvent("open", nil); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := eng.HandleEvent("cancel", nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if got := eng.Active().Name(); got != "done" {
		t.Fatalf("active state = %q, want done", got)
	}
	// Chain exit destroys the leaf before the parent.
	if len(trail) != 2 || trail[0] != "picker.exit" || trail[1] != "form.exit" {
		t.Fatalf("exit order = %v", trail)
	}
}

func TestChainExitOrderThreeDeep(t *testing.T) {
	done := api.NewState(api.StateSpec{Name: "done", Final: true})

	var trail []string
	var mid, leaf *api.State
	root := api.NewState(api.StateSpec{
		Name: "root",
		Handlers: map[string]api.Handler{
			"down": func(any) (api.Transition, error) {
				return api.EnterSub{Sub: mid}, nil
			},
			"abort": func(any) (api.Transition, error) {
				return api.Goto{Next: done}, nil
			},
		},
		BeforeExit: func() { trail = append(trail, "root") },
	})
	mid = api.NewState(api.StateSpec{
		Name:   "mid",
		Parent: root,
		Handlers: map[string]api.Handler{
			"down": func(any) (api.Transition, error) {
				return api.EnterSub{Sub: leaf}, nil
			},
		},
		BeforeExit: func() { trail = append(trail, "mid") },
	})
	leaf = api.NewState(api.StateSpec{
		Name:       "leaf",
		Parent:     mid,
		BeforeExit: func() { trail = append(trail, "leaf") },
	})

	eng := newTestEngine(t, func() *api.State { return root }, Config{})
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.HandleEvent("down", nil); err != nil {
		t.Fatalf("first down: %v", err)
	}
	if err := eng.HandleEvent("down", nil); err != nil {
		t.Fatalf("second down: %v", err)
	}
	if got := eng.Active().Name(); got != "leaf" {
		t.Fatalf("active state = %q, want leaf", got)
	}

	// "abort" bubbles leaf -> mid -> root, and the Goto tears down the
	// chain innermost first.
	if err := eng.HandleEvent("abort", nil); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if len(trail) != 3 || trail[0] != "leaf" || trail[1] != "mid" || trail[2] != "root" {
		t.Fatalf("exit order = %v", trail)
	}
}

func TestEnterSubRequiresActiveParent(t *testing.T) {
	stranger := api.NewState(api.StateSpec{Name: "stranger"})
	orphanSub := api.NewState(api.StateSpec{Name: "orphan", Parent: stranger})

	eng := newTestEngine(t, func() *api.State {
		return api.NewState(api.StateSpec{
			Name: "idle",
			Handlers: map[string]api.Handler{
				"open": func(any) (api.Transition, error) {
					return api.EnterSub{Sub: orphanSub}, nil
				},
			},
		})
	}, Config{})

	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	err := eng.HandleEvent("open", nil)
	var improper *api.ImproperReactionError
	if !errors.As(err, &improper) {
		t.Fatalf("HandleEvent = %v, want *ImproperReactionError", err)
	}
	if got := eng.Active().Name(); got != "idle" {
		t.Fatalf("active state = %q after rejected EnterSub", got)
	}
}

func TestEnterSubRequiresDeclaredParent(t *testing.T) {
	topLevel := api.NewState(api.StateSpec{Name: "loner"})

	eng := newTestEngine(t, func() *api.State {
		return api.NewState(api.StateSpec{
			Name: "idle",
			Handlers: map[string]api.Handler{
				"open": func(any) (api.Transition, error) {
					return api.EnterSub{Sub: topLevel}, nil
				},
			},
		})
	}, Config{})

	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	err := eng.HandleEvent("open", nil)
	var improper *api.ImproperReactionError
	if !errors.As(err, &improper) {
		t.Fatalf("HandleEvent = %v, want *ImproperReactionError", err)
	}
}

func TestReturnWithoutParent(t *testing.T) {
	eng := newTestEngine(t, func() *api.State {
		return api.NewState(api.StateSpec{
			Name: "idle",
			Handlers: map[string]api.Handler{
				"back": func(any) (api.Transition, error) {
					return api.ReturnToParent{}, nil
				},
			},
		})
	}, Config{})

	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.HandleEvent("back", nil); !errors.Is(err, api.ErrReturnWithoutParent) {
		t.Fatalf("HandleEvent = %v, want ErrReturnWithoutParent", err)
	}
	if got := eng.Active().Name(); got != "idle" {
		t.Fatalf("active state = %q after rejected return", got)
	}
}

func TestObserverSeesPreemptionAndResume(t *testing.T) {
	rec := &recorder{}
	var trail []string
	parent := wizard(&trail, nil)

	eng := newTestEngine(t, func() *api.State { return parent }, Config{Observer: rec})
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.HandleEvent("open", nil); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := eng.HandleEvent("pick", nil); err != nil {
		t.Fatalf("pick: %v", err)
	}

	var sawPreempt, sawResume bool
	for _, call := range rec.calls {
		switch call {
		case "preempted:form/picker":
			sawPreempt = true
		case "resumed:form":
			sawResume = true
		}
	}
	if !sawPreempt || !sawResume {
		t.Fatalf("observer calls = %v", rec.calls)
	}
}
