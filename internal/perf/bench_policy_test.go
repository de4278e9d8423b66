package perf

import (
	"testing"

	"github.com/storyweave/storyweave/internal/policy"
)

// The engine sits on every request path, so a single evaluation has to stay
// allocation-light. These benchmarks cover the three hot shapes: a plain
// community grant, a protocol escalation, and a cross-tenant deny.

func BenchmarkAuthorizeCommunityRead(b *testing.B) {
	engine := policy.NewEngine()
	community := int64(7)
	p := policy.Principal{ID: 11, Role: policy.RoleEditor, CommunityID: &community}
	r := policy.CommunityResource("story", 42, community, policy.DefaultProtocol())

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d := engine.Authorize(p, policy.ActionRead, r)
		if !d.Granted() {
			b.Fatalf("expected grant, got %s", d.Reason)
		}
	}
}

func BenchmarkAuthorizeElderProtocol(b *testing.B) {
	engine := policy.NewEngine()
	community := int64(7)
	p := policy.Principal{ID: 11, Role: policy.RoleEditor, CommunityID: &community}
	r := policy.CommunityResource("story", 42, community, policy.Protocol{
		PermissionLevel:   policy.LevelElderOnly,
		CeremonialContent: true,
	})

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d := engine.Authorize(p, policy.ActionRead, r)
		if d.Granted() {
			b.Fatal("expected deny")
		}
	}
}

func BenchmarkAuthorizeCrossCommunityDeny(b *testing.B) {
	engine := policy.NewEngine()
	own := int64(7)
	other := int64(9)
	p := policy.Principal{ID: 11, Role: policy.RoleAdmin, CommunityID: &own}
	r := policy.CommunityResource("place", 42, other, policy.DefaultProtocol())

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d := engine.Authorize(p, policy.ActionUpdate, r)
		if d.Granted() {
			b.Fatal("expected deny")
		}
	}
}
