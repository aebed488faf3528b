package pump

// runProcess is the shared drain/fill step: charge up for total ticks, then
// apply the whole batch and rescan.
func (m *Machine) runProcess(s stage) (stage, bool) {
	p := s.proc
	if p == nil || len(p.targets) == 0 {
		return stage{kind: KindRetract}, true
	}

	p.progress++
	if p.progress < p.total {
		m.setIndicatorProgress(p.progress, p.total)
		return s, true
	}

	for _, target := range p.targets {
		if s.kind == KindFill {
			m.fillApply(target)
		} else {
			m.drainApply(target)
		}
	}
	p.progress = 0
	p.total = 0
	if s.kind == KindFill {
		p.targets = m.fillScan(p)
	} else {
		p.targets = m.drainScan(p)
	}
	m.setIndicatorProgress(p.progress, p.total)
	return s, true
}

// footprint lists the cells directly below the tube and up to width cells
// to its left and right, centerline first.
func (m *Machine) footprint(width int) []Vec3i {
	out := make([]Vec3i, 0, len(m.tube)*(2*width+1))
	for _, t := range m.tube {
		below := t.Down(1)
		out = append(out, below)
		for i := 1; i <= width; i++ {
			out = append(out, below.Offset(m.left, i))
			out = append(out, below.Offset(m.right, i))
		}
	}
	return out
}

func (m *Machine) newDrain() stage {
	p := &process{width: len(m.tube) / 2}
	for _, pos := range m.footprint(p.width) {
		p.targets = m.addDrainTarget(p, p.targets, pos)
	}
	return stage{kind: KindDrain, proc: p}
}

// addDrainTarget keeps liquid cells (counted towards total) and empty cells
// (kept so the scan can continue below them).
func (m *Machine) addDrainTarget(p *process, targets []Vec3i, pos Vec3i) []Vec3i {
	if m.cfg.Liquid.IsLiquid(m.env.Grid.BlockAt(pos)) {
		p.total++
		return append(targets, pos)
	}
	if m.env.isEmpty(pos) {
		return append(targets, pos)
	}
	return targets
}

func (m *Machine) drainApply(target Vec3i) {
	if !m.cfg.Liquid.IsLiquid(m.env.Grid.BlockAt(target)) {
		return
	}
	if !m.env.Authority.CanBreak(m.owner, target) {
		return
	}
	m.env.setEmpty(target)
}

func (m *Machine) drainScan(p *process) []Vec3i {
	p.depth++
	if p.depth >= m.cfg.MaxDepth {
		return nil
	}
	next := make([]Vec3i, 0, len(p.targets))
	for _, pos := range p.targets {
		next = m.addDrainTarget(p, next, pos.Down(1))
	}
	return next
}

type fillClass uint8

const (
	fillBlocked fillClass = iota // solid: hides the rest of the column
	fillOpen                     // empty, flowing or partial settled liquid
	fillFull                     // full settled liquid: not a target, scan continues
)

func (m *Machine) classifyFill(pos Vec3i) fillClass {
	liquid := m.cfg.Liquid
	switch m.env.Grid.BlockAt(pos) {
	case "", BlockAir, liquid.Flowing:
		return fillOpen
	case liquid.Settled:
		if m.env.Grid.StateAt(pos) != 0 {
			return fillOpen
		}
		return fillFull
	}
	return fillBlocked
}

func (m *Machine) newFill() stage {
	p := &process{
		width:      len(m.tube) / 2,
		depthLimit: m.cfg.MaxDepth,
	}
	for _, pos := range m.footprint(p.width) {
		if m.classifyFill(pos) != fillBlocked {
			p.topLevel = append(p.topLevel, pos)
		}
	}
	p.targets = m.fillScan(p)
	return stage{kind: KindFill, proc: p}
}

// fillScan walks every visible column down to depthLimit and keeps only the
// open cells of the deepest layer found in any column. depthLimit is then
// lowered to that layer, so each batch fills the next layer up.
func (m *Machine) fillScan(p *process) []Vec3i {
	depth := 0
	visible := append([]Vec3i(nil), p.topLevel...)
	targets := make([]Vec3i, 0, len(visible))
	for i := 0; i < p.depthLimit; i++ {
		kept := visible[:0]
		for _, col := range visible {
			target := col.Down(i)
			switch m.classifyFill(target) {
			case fillOpen:
				if i != depth {
					depth = i
					targets = targets[:0]
				}
				targets = append(targets, target)
				kept = append(kept, col)
			case fillFull:
				kept = append(kept, col)
			}
		}
		visible = kept
	}
	p.total = len(targets)
	p.depthLimit = depth
	return targets
}

func (m *Machine) fillApply(target Vec3i) {
	if m.classifyFill(target) != fillOpen {
		return
	}
	settled := m.cfg.Liquid.Settled
	if !m.env.Authority.CanPlace(m.owner, target, settled, target.Down(1)) {
		return
	}
	m.env.Grid.SetBlock(target, settled)
	m.env.Grid.SetState(target, 0)
}
