package lupus

import "fmt"

// BurnedPlayer records who the village lynched, for the Medium's
// information the following night.
type BurnedPlayer struct {
	Nickname string
	Role     Role // current role at the time of burning
}

// DayResult is the outcome of resolving the day's lynch votes.
type DayResult struct {
	DeathIDs []string
	Deaths   []string // nicknames
	Burned   *BurnedPlayer
	Events   []Event
}

// ResolveDay tallies the day's votes and burns the most voted player.
// A tie burns every tied player. The first top target is recorded for the
// Medium; no votes means nobody dies.
func ResolveDay(players []Player, votes []Vote) *DayResult {
	res := &DayResult{}
	if len(votes) == 0 {
		return res
	}

	byID := make(map[string]*Player, len(players))
	for i := range players {
		p := players[i]
		byID[p.ID] = &p
	}

	counts := make(map[string]int)
	var order []string
	for _, v := range votes {
		if counts[v.TargetID] == 0 {
			order = append(order, v.TargetID)
		}
		counts[v.TargetID]++
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

	for _, id := range top {
		victim := byID[id]
		if victim == nil || !victim.Alive {
			continue
		}
		victim.Alive = false
		res.DeathIDs = append(res.DeathIDs, victim.ID)
		res.Deaths = append(res.Deaths, victim.Nickname)
		res.Events = append(res.Events, Event{
			Type:   EventBurned,
			Detail: fmt.Sprintf("%s mandato al rogo (era %s)", victim.Nickname, victim.Role),
		})
	}

	if len(res.Deaths) > 0 {
		if first := byID[top[0]]; first != nil {
			res.Burned = &BurnedPlayer{Nickname: first.Nickname, Role: first.Role}
		}
	}

	return res
}
