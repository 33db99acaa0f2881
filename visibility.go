package tracelog

// visibility is the state carried across a frame walk. Hints found in a frame
// apply to that frame and persist inward until reversed.
type visibility struct {
	skipFrames    bool
	hideVariables bool
}

// enter applies s's hints. Stop is applied before start, so a frame carrying
// both resumes output.
func (v *visibility) enter(s *Scope) {
	if s == nil {
		return
	}
	if s.StopPropagation {
		v.skipFrames = true
	}
	if s.StartPropagation {
		v.skipFrames = false
	}
	if s.StopDisplayVariables {
		v.hideVariables = true
	}
	if s.StartDisplayVariables {
		v.hideVariables = false
	}
}

// skip reports whether the frame owning s is left out of the report.
func (v *visibility) skip(s *Scope) bool {
	return v.skipFrames || (s != nil && s.Hidden)
}

// varsHidden reports whether the frame owning s shows its variables.
func (v *visibility) varsHidden(s *Scope) bool {
	return v.hideVariables || (s != nil && s.HideAllVariables)
}
