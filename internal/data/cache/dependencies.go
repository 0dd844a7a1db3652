package cache

type Op string

const (
	OpCreate    Op = "create"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpSetActive Op = "set_active"
	OpSubmit    Op = "submit"
	OpMarkRead  Op = "mark_read"
)

// Mutation identifies a write by the family it targets and what it does.
type Mutation struct {
	Family Family
	Op     Op
}

func (m Mutation) String() string { return string(m.Family) + "." + string(m.Op) }

var (
	mediaDeps   = func(f Family) []Family { return []Family{f, FamilyDashboard} }
	contactDeps = []Family{FamilyContacts, FamilyDashboard}
)

// Dependencies lists, for every write, the families whose cached reads it
// makes stale.
var Dependencies = map[Mutation][]Family{
	{FamilyVideos, OpCreate}:    mediaDeps(FamilyVideos),
	{FamilyVideos, OpUpdate}:    mediaDeps(FamilyVideos),
	{FamilyVideos, OpDelete}:    mediaDeps(FamilyVideos),
	{FamilyVideos, OpSetActive}: mediaDeps(FamilyVideos),

	{FamilyPosters, OpCreate}:    mediaDeps(FamilyPosters),
	{FamilyPosters, OpUpdate}:    mediaDeps(FamilyPosters),
	{FamilyPosters, OpDelete}:    mediaDeps(FamilyPosters),
	{FamilyPosters, OpSetActive}: mediaDeps(FamilyPosters),

	{FamilyContacts, OpSubmit}:   contactDeps,
	{FamilyContacts, OpMarkRead}: contactDeps,
}

// Affected returns the families invalidated by m. A mutation missing from
// Dependencies invalidates its own family.
func Affected(m Mutation) []Family {
	if deps, ok := Dependencies[m]; ok {
		return deps
	}
	return []Family{m.Family}
}
