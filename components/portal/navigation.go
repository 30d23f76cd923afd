package portal

import "sync"

// FinanceGroup is the id of the expandable sidebar group.
const FinanceGroup = "finance"

// NavItem is one sidebar entry. Groups carry children and never become active.
type NavItem struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Icon     string    `json:"icon"`
	Children []NavItem `json:"children,omitempty"`
	Expanded bool      `json:"expanded,omitempty"`
	Active   bool      `json:"active,omitempty"`
}

// IsGroup reports whether the item only toggles its children.
func (item NavItem) IsGroup() bool {
	return len(item.Children) > 0
}

var sidebarItems = []NavItem{
	{ID: string(SectionDashboard), Label: "Dashboard", Icon: "📊"},
	{ID: string(SectionInquiry), Label: "Inquiries", Icon: "📋"},
	{ID: string(SectionSales), Label: "Sales Orders", Icon: "📄"},
	{ID: string(SectionDelivery), Label: "Delivery Details", Icon: "📦"},
	{ID: FinanceGroup, Label: "Finance", Icon: "💰", Children: []NavItem{
		{ID: string(SectionInvoice), Label: "Invoices", Icon: "🧾"},
		{ID: string(SectionPayment), Label: "Payment & Aging", Icon: "💳"},
		{ID: string(SectionMemo), Label: "Credit/Debit Memo", Icon: "📝"},
		{ID: string(SectionOverall), Label: "Overall Data", Icon: "📈"},
	}},
}

// Navigation holds the sidebar state of one session.
type Navigation struct {
	mu        sync.Mutex
	active    SectionID
	collapsed bool
	expanded  map[string]bool
}

// NewNavigation starts on the dashboard with every group collapsed.
func NewNavigation() *Navigation {
	return &Navigation{
		active:   SectionDashboard,
		expanded: map[string]bool{},
	}
}

// Select handles a click on id. Group ids toggle their expansion and return
// false; leaf ids become active and return true. Unknown ids are ignored.
func (n *Navigation) Select(id string) (SectionID, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, item := range sidebarItems {
		if item.ID == id && item.IsGroup() {
			n.expanded[id] = !n.expanded[id]
			return n.active, false
		}
	}
	if !knownSection(id) {
		return n.active, false
	}
	n.active = SectionID(id)
	if group, ok := groupOf(id); ok {
		n.expanded[group] = true
	}
	return n.active, true
}

// ToggleGroup flips the expansion of the group id and reports whether id is
// a group. Leaf ids are left alone.
func (n *Navigation) ToggleGroup(id string) (expanded, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, item := range sidebarItems {
		if item.ID == id && item.IsGroup() {
			n.expanded[id] = !n.expanded[id]
			return n.expanded[id], true
		}
	}
	return false, false
}

// ToggleCollapsed flips the sidebar between full and icon-only width.
func (n *Navigation) ToggleCollapsed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.collapsed = !n.collapsed
	return n.collapsed
}

// Collapsed reports whether the sidebar is icon-only.
func (n *Navigation) Collapsed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.collapsed
}

// Active returns the selected section.
func (n *Navigation) Active() SectionID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

// Items returns a snapshot of the sidebar with active and expanded flags set.
func (n *Navigation) Items() []NavItem {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NavItem, len(sidebarItems))
	for i, item := range sidebarItems {
		item.Active = !item.IsGroup() && item.ID == string(n.active)
		item.Expanded = n.expanded[item.ID]
		if item.IsGroup() {
			children := make([]NavItem, len(item.Children))
			for j, child := range item.Children {
				child.Active = child.ID == string(n.active)
				children[j] = child
			}
			item.Children = children
		}
		out[i] = item
	}
	return out
}

func knownSection(id string) bool {
	switch SectionID(id) {
	case SectionDashboard, SectionInquiry, SectionSales, SectionDelivery,
		SectionInvoice, SectionPayment, SectionMemo, SectionOverall, SectionProfile:
		return true
	default:
		return false
	}
}

func groupOf(id string) (string, bool) {
	for _, item := range sidebarItems {
		for _, child := range item.Children {
			if child.ID == id {
				return item.ID, true
			}
		}
	}
	return "", false
}
