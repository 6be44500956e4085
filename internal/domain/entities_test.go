package domain

import "testing"

func TestIdentityKeyString(t *testing.T) {
	key := IdentityKey{ChatID: -100123, UserID: 42}
	if got := key.String(); got != "-100123:42" {
		t.Fatalf("ожидали \"-100123:42\", получили %q", got)
	}
}

func TestParseIdentityKey(t *testing.T) {
	key, err := ParseIdentityKey("7:1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if key.ChatID != 7 || key.UserID != 1 {
		t.Fatalf("неверный разбор: %+v", key)
	}

	for _, raw := range []string{"", "7", "7:много", "x:1"} {
		if _, err := ParseIdentityKey(raw); err == nil {
			t.Fatalf("ожидали ошибку для %q", raw)
		}
	}
}

func TestMemberDisplayName(t *testing.T) {
	cases := []struct {
		member   Member
		expected string
	}{
		{Member{FirstName: "Juan", LastName: "Pérez"}, "Juan Pérez"},
		{Member{FirstName: "Juan"}, "Juan"},
		{Member{LastName: "Pérez"}, "Pérez"},
		{Member{FirstName: "  Juan  ", LastName: "  "}, "Juan"},
		{Member{}, ""},
	}
	for _, tc := range cases {
		if got := tc.member.DisplayName(); got != tc.expected {
			t.Fatalf("DisplayName(%+v) = %q, ожидали %q", tc.member, got, tc.expected)
		}
	}
}

func TestMemberStatusElevated(t *testing.T) {
	if !MemberStatusCreator.Elevated() || !MemberStatusAdministrator.Elevated() {
		t.Fatal("создатель и администратор имеют привилегии")
	}
	if MemberStatusMember.Elevated() || MemberStatusLeft.Elevated() {
		t.Fatal("обычные статусы не дают привилегий")
	}
}
