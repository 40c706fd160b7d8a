package lupus

import (
	"fmt"
	"strings"
)

// NightResult is the outcome of resolving one night's actions. Deaths and
// DeathIDs are unique and in death order; Events are in emission order.
type NightResult struct {
	RoleChanges  map[string]Role // player ID -> new current role (Mitomane copies)
	KamikazeUsed []string        // player IDs that spent their explosion
	DeathIDs     []string
	Deaths       []string // nicknames
	Events       []Event
}

// ResolveNight runs the night pipeline over a snapshot of the game's players
// and the night's submitted actions. turn is the game's current turn number.
// Steps run in a fixed order: Mitomane copy, protections, wolf kill,
// Kamikaze explosions. Inspections were answered at submission time and the
// Medium/Massoni information is projection-only, so neither appears here.
func ResolveNight(players []Player, actions []Action, turn int) *NightResult {
	r := newNightResolver(players, actions, turn)
	r.copyStep()
	r.protectStep()
	r.wolfStep()
	r.explodeStep()
	return r.res
}

type nightResolver struct {
	players map[string]*Player // working copies; Alive and Role mutate as steps apply
	seating []string           // player IDs in join order
	actions []Action
	turn    int
	total   int // all seats, dead included; drives wolf kill capacity

	protected    map[string]bool   // target ID -> has an active protection
	protectorOf  map[string]string // target ID -> protecting player ID
	protectOrder []string          // target IDs in registration order

	res *NightResult
}

func newNightResolver(players []Player, actions []Action, turn int) *nightResolver {
	r := &nightResolver{
		players:     make(map[string]*Player, len(players)),
		actions:     actions,
		turn:        turn,
		total:       len(players),
		protected:   make(map[string]bool),
		protectorOf: make(map[string]string),
		res: &NightResult{
			RoleChanges: make(map[string]Role),
		},
	}
	for i := range players {
		p := players[i]
		r.players[p.ID] = &p
		r.seating = append(r.seating, p.ID)
	}
	return r
}

func (r *nightResolver) byType(t ActionType) []Action {
	var out []Action
	for _, a := range r.actions {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func (r *nightResolver) event(typ, detail string) {
	r.res.Events = append(r.res.Events, Event{Type: typ, Detail: detail})
}

// kill marks p dead and records it. Returns false if p was already dead
// (or nil), so chained kills never double-count.
func (r *nightResolver) kill(p *Player) bool {
	if p == nil || !p.Alive {
		return false
	}
	p.Alive = false
	r.res.DeathIDs = append(r.res.DeathIDs, p.ID)
	r.res.Deaths = append(r.res.Deaths, p.Nickname)
	return true
}

// otherMason finds a second Massone (by current role) in seating order,
// alive or dead; callers decide whether a corpse matters.
func (r *nightResolver) otherMason(excludeID string) *Player {
	for _, id := range r.seating {
		p := r.players[id]
		if p.Role == RoleMassone && p.ID != excludeID {
			return p
		}
	}
	return nil
}

// copyStep applies Mitomane copies. Only turn 2 has them; the copy rewrites
// the current role while the original role stays frozen.
func (r *nightResolver) copyStep() {
	if r.turn != 2 {
		return
	}
	for _, a := range r.byType(ActionCopy) {
		m := r.players[a.PlayerID]
		t := r.players[a.TargetID]
		if m == nil || t == nil || !m.Alive {
			continue
		}
		switch {
		case IsWolf(t.Role):
			m.Role = RoleLupo
			r.res.RoleChanges[m.ID] = RoleLupo
			r.event(EventMitomaneCopy, fmt.Sprintf("%s ha copiato un Lupo e diventa Lupo!", m.Nickname))
		case t.Role == RoleVeggente:
			m.Role = RoleVeggente
			r.res.RoleChanges[m.ID] = RoleVeggente
			r.event(EventMitomaneCopy, fmt.Sprintf("%s ha copiato il Veggente e diventa Veggente!", m.Nickname))
		default:
			m.Role = RoleVillico
			r.res.RoleChanges[m.ID] = RoleVillico
			r.event(EventMitomaneCopy, fmt.Sprintf("%s ha copiato un ruolo senza effetto, resta Villico.", m.Nickname))
		}
	}
}

// protectStep registers protections from living Protettori.
func (r *nightResolver) protectStep() {
	for _, a := range r.byType(ActionProtect) {
		guard := r.players[a.PlayerID]
		if guard == nil || !guard.Alive {
			continue
		}
		if !r.protected[a.TargetID] {
			r.protectOrder = append(r.protectOrder, a.TargetID)
		}
		r.protected[a.TargetID] = true
		r.protectorOf[a.TargetID] = guard.ID
		if t := r.players[a.TargetID]; t != nil {
			r.event(EventProtect, fmt.Sprintf("Il Protettore protegge %s", t.Nickname))
		}
	}
}

// wolfStep tallies the wolves' kill votes and applies the result. The tie
// rule: with more tied targets than kill slots, nobody dies.
func (r *nightResolver) wolfStep() {
	kills := r.byType(ActionKill)
	if len(kills) == 0 {
		return
	}

	counts := make(map[string]int)
	var order []string // targets in first-vote order, keeps ties deterministic
	for _, a := range kills {
		if counts[a.TargetID] == 0 {
			order = append(order, a.TargetID)
		}
		counts[a.TargetID]++
	}
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	var top []string
	for _, id := range order {
		if counts[id] == max {
			top = append(top, id)
		}
	}

	// Large games give the pack two kills a night.
	capacity := 1
	if r.total >= 19 {
		capacity = 2
	}
	if len(top) > capacity {
		r.event(EventWolfTie, "I lupi non si sono accordati, nessuno muore.")
		return
	}

	for _, victimID := range top {
		victim := r.players[victimID]
		if victim == nil || !victim.Alive {
			continue
		}
		if victim.Role == RoleCriceto {
			r.event(EventCricetoImmune, fmt.Sprintf("I lupi hanno attaccato %s (Criceto Mannaro) ma non muore!", victim.Nickname))
			continue
		}
		if r.protected[victim.ID] {
			r.event(EventProtected, fmt.Sprintf("I lupi hanno attaccato %s ma era protetto!", victim.Nickname))
			continue
		}

		r.kill(victim)
		r.event(EventWolfKill, fmt.Sprintf("I lupi hanno ucciso %s", victim.Nickname))

		// Massoni die together unless the survivor is protected.
		if victim.Role == RoleMassone {
			other := r.otherMason(victim.ID)
			if other != nil && other.Alive {
				if r.protected[other.ID] {
					r.event(EventMasonProtected, fmt.Sprintf("L'altro massone %s era protetto e sopravvive.", other.Nickname))
				} else {
					r.kill(other)
					r.event(EventMasonChain, fmt.Sprintf("Anche il massone %s muore insieme al compagno!", other.Nickname))
				}
			}
		}
	}
}

// explodeStep applies Kamikaze explosions. The Kamikaze always dies; the
// blast ignores both protection and the Criceto's wolf immunity, and chains
// through protective relationships.
func (r *nightResolver) explodeStep() {
	for _, a := range r.byType(ActionExplode) {
		k := r.players[a.PlayerID]
		if k == nil || !k.Alive {
			continue
		}

		k.KamikazeUsed = true
		r.res.KamikazeUsed = append(r.res.KamikazeUsed, k.ID)

		var blast []string
		boom := func(p *Player) {
			if r.kill(p) {
				blast = append(blast, p.Nickname)
			}
		}

		boom(k)

		if t := r.players[a.TargetID]; t != nil && t.Alive {
			switch {
			case t.Role == RoleProtettore:
				// The blast takes the Protettore and everyone under
				// their protection tonight.
				boom(t)
				for _, protectedID := range r.protectOrder {
					if r.protectorOf[protectedID] == t.ID {
						boom(r.players[protectedID])
					}
				}
			case r.protected[t.ID]:
				// Protection does not stop the blast; it drags the
				// protector in instead.
				boom(t)
				if guardID, ok := r.protectorOf[t.ID]; ok {
					boom(r.players[guardID])
				}
			case t.Role == RoleMassone:
				boom(t)
				other := r.otherMason(t.ID)
				if other != nil && other.Alive {
					boom(other)
					if r.protected[t.ID] {
						boom(r.players[r.protectorOf[t.ID]])
					}
					if r.protected[other.ID] {
						boom(r.players[r.protectorOf[other.ID]])
					}
				}
			default:
				boom(t)
			}
		}

		r.event(EventKamikazeBoom, fmt.Sprintf("💥 Il Kamikaze esplode! Morti: %s", strings.Join(blast, ", ")))
	}
}
