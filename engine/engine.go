// Package engine provides the Do() orchestrator that wires together
// validation, parameter resolution, consumption, tier resolution, outcome
// application, and events into a single action call, plus the clock that
// runs the daily NPC and Director systems.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nathoo/roomlife/engine/effects"
	"github.com/nathoo/roomlife/engine/events"
	"github.com/nathoo/roomlife/engine/fault"
	"github.com/nathoo/roomlife/engine/formula"
	"github.com/nathoo/roomlife/engine/npc"
	"github.com/nathoo/roomlife/engine/resolve"
	"github.com/nathoo/roomlife/engine/rng"
	"github.com/nathoo/roomlife/engine/rules"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/engine/tier"
	"github.com/nathoo/roomlife/types"
)

// Pricing and repair constants.
const (
	SellRate         = 0.4
	MinSalePence     = 100
	RepairableBelow  = 90
	actionSeedPerDay = 97
)

// Engine holds the content registry and the mutable state.
type Engine struct {
	Reg    *state.Registry
	State  *types.State
	RNG    *rng.RNG
	Logger *slog.Logger
}

// New creates a new engine with a fresh game for seed.
func New(reg *state.Registry, seed int64) (*Engine, error) {
	s, err := state.NewState(reg, seed)
	if err != nil {
		return nil, err
	}
	return &Engine{Reg: reg, State: s, RNG: rng.New(seed)}, nil
}

// Resume wraps an existing state, such as one loaded from a save.
func Resume(reg *state.Registry, s *types.State) *Engine {
	return &Engine{Reg: reg, State: s, RNG: rng.New(s.World.Seed)}
}

// reseed starts the turn's RNG stream for the current day and slice.
func (e *Engine) reseed(seed int64) {
	w := e.State.World
	e.RNG.Reseed(seed + int64(w.Day)*actionSeedPerDay + int64(state.SliceIndex(w.Slice)))
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Do executes one action call. Player-facing failures come back as an
// invalid Validation with an action.failed event and a nil error; errors
// are reserved for content and consistency faults. Tier is -1 when the
// action resolved no tier.
func (e *Engine) Do(call types.ActionCall, seed int64) (types.ActionResult, error) {
	s := e.State
	e.reseed(seed)
	logStart := s.EventSeq

	spec, ok := e.Reg.Action(call.ActionID)
	if !ok && call.Params == nil {
		if legacy, found := ParseLegacy(e.Reg, s, call.ActionID); found {
			call = legacy
			spec, ok = e.Reg.Action(call.ActionID)
		}
	}
	if !ok {
		events.Log(s, "action.unknown", map[string]any{"action_id": call.ActionID})
		e.logger().Debug("unknown action", "action_id", call.ActionID)
		return types.ActionResult{
			ActionID:   call.ActionID,
			Validation: rules.Fail(ReasonUnknownAction, "unknown action: "+call.ActionID),
			Tier:       -1,
			Events:     events.Since(s, logStart),
		}, nil
	}

	res := types.ActionResult{ActionID: spec.ID, Tier: -1}
	cmd, refusal, err := e.check(spec, call.Params)
	if err != nil {
		res.Events = events.Since(s, logStart)
		return res, err
	}
	if refusal != nil {
		return e.fail(res, logStart, refusal), nil
	}

	res, err = e.execute(spec, cmd, res, seed)
	res.Events = events.Since(s, logStart)
	if err != nil {
		var ce *fault.ConsistencyError
		if errors.As(err, &ce) {
			e.logger().Error("consistency fault", "action_id", spec.ID, "err", err)
		}
		return res, err
	}
	res.Validation = rules.Pass()
	return res, nil
}

// Validate reports whether the player may attempt spec with params right
// now. Beyond the requirement families it runs the checks of the action's
// kind: connectivity, repair threshold and cost, price, and carrying. It
// never mutates state. A content fault, such as a broken repair formula,
// comes back as an invalid validation.
func (e *Engine) Validate(spec *types.ActionSpec, params map[string]any) types.Validation {
	_, refusal, err := e.check(spec, params)
	if err != nil {
		e.logger().Error("validation fault", "action_id", spec.ID, "err", err)
		return rules.Fail(ReasonContentFault, err.Error())
	}
	if refusal != nil {
		return refusal.validation()
	}
	return rules.Pass()
}

// check runs the requirement validator, classifies the call, and applies
// the kind's own checks. A refusal is player-facing; an error is a content
// fault.
func (e *Engine) check(spec *types.ActionSpec, params map[string]any) (command, *failure, error) {
	s := e.State
	if v := rules.Validate(s, e.Reg, spec, params); !v.Valid {
		return nil, &failure{reason: v.Reason, missing: v.Missing}, nil
	}
	cmd, reason := classify(s, spec, params)
	if reason != "" {
		return nil, &failure{reason: reason}, nil
	}

	switch c := cmd.(type) {
	case genericCmd, sellCmd, discardCmd:
		return cmd, nil, nil
	case moveCmd:
		return cmd, e.checkMove(c), nil
	case repairCmd:
		_, _, refusal, err := e.repairTerms(spec, c)
		return cmd, refusal, err
	case purchaseCmd:
		return cmd, e.checkPurchase(c), nil
	case pickupCmd:
		if err := resolve.CanPickup(s, c.item); err != nil {
			var ce *resolve.CapacityError
			if errors.As(err, &ce) {
				return cmd, &failure{reason: ReasonInventoryFull, missing: []string{err.Error()}}, nil
			}
			return cmd, &failure{reason: ReasonItemNotHere, missing: []string{err.Error()}}, nil
		}
		return cmd, nil, nil
	case dropCmd:
		if err := resolve.CanDrop(c.item); err != nil {
			return cmd, &failure{reason: ReasonNotCarried, missing: []string{err.Error()}}, nil
		}
		return cmd, nil, nil
	default:
		panic(fmt.Sprintf("engine: unhandled command %T", cmd))
	}
}

// execute applies a checked command, then what every kind shares:
// consumption for bespoke kinds and the outcome table when present.
func (e *Engine) execute(spec *types.ActionSpec, cmd command, res types.ActionResult, seed int64) (types.ActionResult, error) {
	var npcID string

	switch c := cmd.(type) {
	case genericCmd:
		npcID = c.npcID
		if _, err := effects.ApplyConsumes(e.State, e.Reg, spec); err != nil {
			return res, err
		}
	case moveCmd:
		e.move(c)
	case repairCmd:
		if err := e.repair(spec, c); err != nil {
			return res, err
		}
	case purchaseCmd:
		e.purchase(c)
	case sellCmd:
		e.sell(c)
	case discardCmd:
		e.discard(c)
	case pickupCmd:
		if err := resolve.Pickup(e.State, c.item); err != nil {
			return res, fault.Consistencyf(spec.ID, "pickup after check: %v", err)
		}
		events.Log(e.State, "item.picked_up", map[string]any{"item_id": c.item.ItemID, "instance_id": c.item.InstanceID})
	case dropCmd:
		if err := resolve.Drop(e.State, c.item); err != nil {
			return res, fault.Consistencyf(spec.ID, "drop after check: %v", err)
		}
		events.Log(e.State, "item.dropped", map[string]any{
			"item_id":     c.item.ItemID,
			"instance_id": c.item.InstanceID,
			"space_id":    e.State.World.Location,
		})
	default:
		panic(fmt.Sprintf("engine: unhandled command %T", cmd))
	}

	if cmd.kind() != types.KindGeneric {
		if _, err := effects.ApplyConsumes(e.State, e.Reg, spec); err != nil {
			return res, err
		}
	}

	if len(spec.Outcomes) == 0 {
		return res, nil
	}
	res.Tier = tier.Compute(tier.PlayerActor(e.State), e.State, e.Reg, spec, tier.Seed(seed, e.State.World.Day, spec.ID))
	if _, err := effects.ApplyOutcome(e.State, e.Reg, spec, res.Tier, effects.Options{EmitEvents: true, NPCID: npcID}); err != nil {
		return res, err
	}
	return res, nil
}

// failure is a player-facing refusal.
type failure struct {
	reason  string
	missing []string
	params  map[string]any
}

func (f *failure) validation() types.Validation {
	return rules.Fail(f.reason, f.missing...)
}

func (e *Engine) fail(res types.ActionResult, logStart int, f *failure) types.ActionResult {
	v := f.validation()
	params := map[string]any{
		"action_id": res.ActionID,
		"reason":    v.Reason,
		"missing":   v.Missing,
	}
	for k, val := range f.params {
		params[k] = val
	}
	events.Log(e.State, "action.failed", params)
	e.logger().Debug("action failed", "action_id", res.ActionID, "reason", v.Reason, "missing", v.Missing)
	res.Validation = v
	res.Events = events.Since(e.State, logStart)
	return res
}

func (e *Engine) checkMove(c moveCmd) *failure {
	s := e.State
	if _, ok := s.Spaces[c.target]; !ok {
		return &failure{reason: ReasonSpaceNotFound, missing: []string{"no such space: " + c.target}}
	}
	if err := resolve.Connected(s, c.target); err != nil {
		var nf *resolve.NotFoundError
		if errors.As(err, &nf) {
			return &failure{reason: ReasonSpaceNotFound, missing: []string{err.Error()}}
		}
		return &failure{reason: ReasonNotConnected, missing: []string{err.Error()}}
	}
	return nil
}

func (e *Engine) move(c moveCmd) {
	s := e.State
	from := s.World.Location
	s.World.Location = c.target
	s.Player.Encounter = ""
	events.Log(s, "player.moved", map[string]any{"from": from, "to": c.target})
	npc.Encounter(s)
}

// repairTerms evaluates what repairing c.item would cost and restore, and
// refuses when the item is already in good condition or unaffordable.
func (e *Engine) repairTerms(spec *types.ActionSpec, c repairCmd) (cost, amount int, refusal *failure, err error) {
	s := e.State
	it := c.item
	if it.ConditionValue >= RepairableBelow {
		return 0, 0, &failure{reason: ReasonGoodCondition, missing: []string{
			fmt.Sprintf("%s is already in good condition (%d)", it.ItemID, it.ConditionValue),
		}}, nil
	}

	vars := formulaVars(s, it)
	rawCost, err := e.evalFormula(spec.ID, formula.RepairCost, vars)
	if err != nil {
		return 0, 0, nil, err
	}
	rawAmount, err := e.evalFormula(spec.ID, formula.RepairAmount, vars)
	if err != nil {
		return 0, 0, nil, err
	}

	// The repair is paid before the action's own consumption.
	cost = int(math.Round(rawCost))
	need := cost
	if spec.Consumes != nil {
		need += spec.Consumes.MoneyPence
	}
	if s.Player.MoneyPence < need {
		return 0, 0, &failure{
			reason:  ReasonInsufficient,
			missing: []string{rules.MissingMoney(need, s.Player.MoneyPence)},
			params:  map[string]any{"required_pence": need, "current_pence": s.Player.MoneyPence},
		}, nil
	}
	return cost, int(math.Round(rawAmount)), nil, nil
}

func (e *Engine) repair(spec *types.ActionSpec, c repairCmd) error {
	s := e.State
	it := c.item
	cost, amount, refusal, err := e.repairTerms(spec, c)
	if err != nil {
		return err
	}
	if refusal != nil {
		return fault.Consistencyf(spec.ID, "repair refused after check: %s", refusal.reason)
	}

	before := it.ConditionValue
	s.Player.MoneyPence -= cost
	effects.Repair(it, amount)
	events.Log(s, "item.repaired", map[string]any{
		"item_id":     it.ItemID,
		"instance_id": it.InstanceID,
		"cost_pence":  cost,
		"from":        before,
		"to":          it.ConditionValue,
	})
	return nil
}

func (e *Engine) evalFormula(actionID, name string, vars formula.Vars) (float64, error) {
	f, ok := e.Reg.Formula(actionID, name)
	if !ok {
		return 0, fault.Contentf(actionID, "no formula %q", name)
	}
	v, err := f.Eval(vars)
	if err != nil {
		return 0, &fault.ContentError{ActionID: actionID, Msg: "formula " + name, Err: err}
	}
	return v, nil
}

func formulaVars(s *types.State, it *types.Item) formula.Vars {
	p := &s.Player
	vars := formula.Vars{
		Money:  float64(p.MoneyPence),
		Day:    float64(s.World.Day),
		Skills: map[string]float64{},
		Traits: map[string]float64{},
		Needs:  map[string]float64{},
	}
	if it != nil {
		vars.Condition = float64(it.ConditionValue)
		vars.Quality = it.Quality
	}
	for k, sk := range p.Skills {
		vars.Skills[k] = sk.Value
	}
	for k, v := range p.Traits {
		vars.Traits[k] = float64(v)
	}
	for k, v := range p.Needs {
		vars.Needs[k] = float64(v)
	}
	return vars
}

func (e *Engine) checkPurchase(c purchaseCmd) *failure {
	meta, ok := e.Reg.ItemMeta(c.itemID)
	if !ok || meta.Price <= 0 {
		return &failure{reason: ReasonNotForSale, missing: []string{c.itemID + " is not for sale"}}
	}
	if have := e.State.Player.MoneyPence; have < meta.Price {
		return &failure{
			reason:  ReasonInsufficient,
			missing: []string{rules.MissingMoney(meta.Price, have)},
			params:  map[string]any{"required_pence": meta.Price, "current_pence": have},
		}
	}
	return nil
}

func (e *Engine) purchase(c purchaseCmd) {
	s := e.State
	meta, _ := e.Reg.ItemMeta(c.itemID)
	price := meta.Price
	s.Player.MoneyPence -= price
	it := state.NewItem(s, e.Reg, c.itemID, s.World.Location)
	effects.TrackHabit(&s.Player, effects.HabitConfidence, effects.PurchaseHabit)
	events.Log(s, "shopping.purchase", map[string]any{
		"item_id":     c.itemID,
		"instance_id": it.InstanceID,
		"cost_pence":  price,
	})
}

// SalePrice is what an item fetches when sold.
func SalePrice(reg *state.Registry, it *types.Item) int {
	meta, _ := reg.ItemMeta(it.ItemID)
	earned := int(float64(meta.Price) * SellRate * float64(it.ConditionValue) / 100)
	if earned < MinSalePence {
		return MinSalePence
	}
	return earned
}

func (e *Engine) sell(c sellCmd) {
	s := e.State
	earned := SalePrice(e.Reg, c.item)
	state.RemoveItem(s, c.item.InstanceID)
	s.Player.MoneyPence += earned
	effects.TrackHabit(&s.Player, effects.HabitFrugality, effects.SellHabit)
	events.Log(s, "shopping.sell", map[string]any{
		"item_id":      c.item.ItemID,
		"instance_id":  c.item.InstanceID,
		"earned_pence": earned,
	})
}

func (e *Engine) discard(c discardCmd) {
	state.RemoveItem(e.State, c.item.InstanceID)
	effects.TrackHabit(&e.State.Player, effects.HabitMinimalism, effects.DiscardHabit)
	events.Log(e.State, "shopping.discard", map[string]any{
		"item_id":     c.item.ItemID,
		"instance_id": c.item.InstanceID,
	})
}
