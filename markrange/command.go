package markrange

import (
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"richdoc/dom"
)

// Action is mark command verb.
type Action uint8

const (
	ActionPreview Action = iota
	ActionApply
	ActionRevoke
	ActionRemove
	ActionFind
	ActionFilter
	ActionWrap
)

// ApplyLock is how long history is locked while preview is committed.
const ApplyLock = 30 * time.Millisecond

// Command is a single engine request.
type Command struct {
	Action Action
	Key    string
	ID     string
	// Value is document value for ActionFilter and ActionWrap, empty means
	// live document.
	Value string
	// Entries are ranges reattached by ActionWrap.
	Entries []Entry
}

// Result carries outcome of Execute, only fields relevant to the action
// are set.
type Result struct {
	Preview  PreviewResult
	Elements []dom.NodeID
	Pending  *PendingMarkSet
	Value    string
}

// Execute runs command bracketing it with history calls so the host can
// group it into single undo step. Selection changes reported while command
// runs are ignored.
func (e *Engine) Execute(cmd Command) (Result, error) {
	e.executing = true
	defer func() { e.executing = false }()

	var (
		res Result
		err error
	)
	switch cmd.Action {
	case ActionPreview:
		if cmd.ID == "" {
			e.cachePreview = true
			e.history.StartCache()
		}
		res.Preview, err = e.Preview(cmd.Key, cmd.ID)
		if err != nil || res.Preview.Text == "" {
			e.cachePreview = false
			e.history.DestroyCache()
		}
	case ActionApply:
		if cmd.ID == "" {
			return res, nil
		}
		e.history.Lock(ApplyLock)
		err = e.Apply(cmd.Key, cmd.ID)
		e.cachePreview = false
		e.history.SubmitCache()
	case ActionRevoke:
		err = e.Revoke(cmd.Key, cmd.ID)
		e.cachePreview = false
		e.history.DestroyCache()
	case ActionRemove:
		if cmd.ID == "" {
			return res, nil
		}
		e.history.Lock(0)
		err = e.Remove(cmd.Key, cmd.ID)
	case ActionFind:
		if cmd.ID != "" {
			res.Elements = e.FindElements(cmd.Key, cmd.ID)
		}
	case ActionFilter:
		var set PendingMarkSet
		if set, err = e.FilterValue(cmd.Key, cmd.Value); err == nil {
			res.Pending = &set
		}
	case ActionWrap:
		res.Value, err = e.WrapFromPath(cmd.Key, cmd.Entries, cmd.Value)
	default:
		err = fmt.Errorf("unknown mark action %d", cmd.Action)
	}
	if err != nil {
		return res, fmt.Errorf("mark command on %q: %w", cmd.Key, err)
	}
	return res, nil
}

// SelectionChanged handles selection change notification. Notifications
// caused by the engine itself (selfExecuting, or arriving while Execute
// runs) are ignored. Pending cached preview is dropped, ids are diffed and
// the mark selection resolves to is reported.
func (e *Engine) SelectionChanged(r dom.Range, selfExecuting bool) *SelectInfo {
	if selfExecuting || e.executing {
		return nil
	}
	if e.cachePreview {
		e.history.DestroyCache()
		e.cachePreview = false
	}
	if err := e.SetRange(r); err != nil {
		e.log.Debug("Selection is outside of document", zap.Error(err))
		e.events.Select("", "")
		return nil
	}

	e.TriggerChange()

	info := e.GetSelectInfo(e.rng, true)
	if info != nil {
		e.events.Select(info.Key, info.ID)
	} else {
		e.events.Select("", "")
	}
	return info
}

// TriggerChange compares ids present in the document with ids seen last
// time and reports difference for every configured key.
func (e *Engine) TriggerChange() (added, removed map[string][]string) {
	added, removed = make(map[string][]string), make(map[string][]string)
	cur := e.IDs()
	for _, key := range e.keys {
		prev, now := e.ids[key], cur[key]
		for _, id := range now {
			if !slices.Contains(prev, id) {
				added[key] = append(added[key], id)
			}
		}
		for _, id := range prev {
			if !slices.Contains(now, id) {
				removed[key] = append(removed[key], id)
			}
		}
		if len(added[key]) > 0 || len(removed[key]) > 0 {
			e.events.Change(key, added[key], removed[key])
		}
	}
	e.ids = cur
	return added, removed
}
