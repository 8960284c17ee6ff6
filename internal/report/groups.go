package report

import "github.com/AndreyAkinshin/ontap/internal/errors"

// GroupStack tracks the currently open test groups, outermost first.
type GroupStack struct {
	ids []string
}

// Enter pushes a group.
func (s *GroupStack) Enter(id string) {
	s.ids = append(s.ids, id)
}

// Exit pops the innermost group and returns its id.
func (s *GroupStack) Exit() (string, error) {
	if len(s.ids) == 0 {
		return "", errors.UnbalancedGroupStack()
	}
	id := s.ids[len(s.ids)-1]
	s.ids = s.ids[:len(s.ids)-1]
	return id, nil
}

// Depth returns the number of open groups.
func (s *GroupStack) Depth() int {
	return len(s.ids)
}

// Path returns the open group ids, outermost first.
func (s *GroupStack) Path() []string {
	return append([]string(nil), s.ids...)
}
