package lupus

// WinResult names the winning side and the flavor text shown to players.
type WinResult struct {
	Winners string
	Detail  string
}

const cricetoWinDetail = "Il Criceto Mannaro è sopravvissuto e vince da solo!"

// CheckWin inspects the living players and returns the winner, or nil while
// the game continues. Wolf numerical power counts Lupo, Kamikaze, and
// Oracolo; the Indemoniato shares the wolves' victory without strengthening
// them. A living Criceto steals any ending.
func CheckWin(players []Player) *WinResult {
	evil, nonEvil := 0, 0
	cricetoAlive := false
	for _, p := range players {
		if !p.Alive {
			continue
		}
		switch p.Role {
		case RoleLupo, RoleKamikaze, RoleOracolo:
			evil++
		default:
			nonEvil++
		}
		if p.Role == RoleCriceto {
			cricetoAlive = true
		}
	}

	if evil == 0 {
		if cricetoAlive {
			return &WinResult{Winners: WinnersCriceto, Detail: cricetoWinDetail}
		}
		return &WinResult{Winners: WinnersVillaggio, Detail: "Tutti i lupi sono stati eliminati!"}
	}
	if evil >= nonEvil {
		if cricetoAlive {
			return &WinResult{Winners: WinnersCriceto, Detail: cricetoWinDetail}
		}
		return &WinResult{Winners: WinnersLupi, Detail: "I lupi hanno preso il controllo del villaggio!"}
	}
	return nil
}

// DidPlayerWin decides the per-player victory used for stats and history.
// The current role governs: a Mitomane turned Lupo wins with the wolves,
// and loses with the village it was dealt into.
func DidPlayerWin(originalRole, currentRole Role, winners string, isAlive bool) bool {
	switch winners {
	case WinnersCriceto:
		return currentRole == RoleCriceto && isAlive
	case WinnersLupi:
		return IsEvil(currentRole)
	case WinnersVillaggio:
		return !IsEvil(currentRole) && currentRole != RoleCriceto
	}
	return false
}
