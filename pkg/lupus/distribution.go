package lupus

// MinPlayers and MaxPlayers bound the lobby size.
const (
	MinPlayers = 6
	MaxPlayers = 30
)

// Distribution returns the role set for a game of n players, in a fixed
// order; callers shuffle before assignment. The composition is deterministic
// given n.
//
// Base game (n=6): 1 Lupo, 1 Veggente, 4 Villici. Each size up to 22 adds one
// role; 13 gets a filler Villico that is replaced by the two Massoni at 14.
// Beyond 22 the table pads with Villici.
func Distribution(n int) []Role {
	if n < MinPlayers {
		return nil
	}

	roles := []Role{
		RoleLupo,
		RoleVeggente,
		RoleVillico, RoleVillico, RoleVillico, RoleVillico,
	}

	if n >= 7 {
		roles = append(roles, RoleLupo)
	}
	if n >= 8 {
		roles = append(roles, RoleVillico)
	}
	if n >= 9 {
		roles = append(roles, RoleMedium)
	}
	if n >= 10 {
		roles = append(roles, RoleIndemoniato)
	}
	if n >= 11 {
		roles = append(roles, RoleProtettore)
	}
	if n >= 12 {
		roles = append(roles, RoleOracolo)
	}

	// The Massoni only make sense as a pair, so 13 players get a plain
	// Villico and 14 trade it for both Massoni at once.
	if n == 13 {
		roles = append(roles, RoleVillico)
	} else if n >= 14 {
		roles = append(roles, RoleMassone, RoleMassone)
	}

	if n >= 15 {
		roles = append(roles, RoleCriceto)
	}
	if n >= 16 {
		roles = append(roles, RoleKamikaze)
	}
	if n >= 17 {
		roles = append(roles, RoleMitomane)
	}
	if n >= 18 {
		roles = append(roles, RoleVillico)
	}
	if n >= 19 {
		roles = append(roles, RoleLupo)
	}
	if n >= 20 {
		roles = append(roles, RoleVillico)
	}
	if n >= 21 {
		roles = append(roles, RoleIndemoniato)
	}
	if n >= 22 {
		roles = append(roles, RoleCriceto)
	}

	for len(roles) < n {
		roles = append(roles, RoleVillico)
	}

	return roles[:n]
}

// RoleCounts aggregates a role list into name → count, the shape stored on
// the game and shown to every player.
func RoleCounts(roles []Role) map[string]int {
	counts := make(map[string]int, len(roles))
	for _, r := range roles {
		counts[string(r)]++
	}
	return counts
}
