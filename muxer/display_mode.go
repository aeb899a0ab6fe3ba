package muxer

import "github.com/zsiec/vista/media"

// updateDisplayMode recomputes the display mode from {source field mode,
// source fps, target field mode, target fps}, following frame_muxer.cpp's
// update_display_mode and the SD mis-tagging workaround it applies first.
func (m *Muxer) updateDisplayMode(srcField media.FieldMode, width, height int, interlaced bool) {
	mode := srcField
	if mode == media.Progressive && height < 720 && m.inFPS < 50.0 {
		// SD frames are frequently mis-tagged progressive when they are
		// actually interlaced; treat as upper-field-first.
		mode = media.UpperFieldFirst
	}

	m.displayMode = selectDisplayMode(mode, m.inFPS, m.target.Field, m.target.Fps().Float())

	ntscDV := height == 480 && m.target.Height == 486
	if !ntscDV && m.displayMode == Simple && mode != media.Progressive &&
		m.target.Field != media.Progressive && height != m.target.Height &&
		!(width == 720 && height == 608 && m.target.Height == 576) {
		m.displayMode = ScaleInterlaced
	}

	if m.forceDeinterlace && interlaced && m.displayMode != DeinterlaceBob && m.displayMode != Deinterlace {
		m.displayMode = ScaleInterlaced
	}

	describe := m.filter.Describe()
	if m.isMXF && height == 608 && width == 720 {
		describe = appendFilter(describe, "crop=720:576:0:32")
	}
	switch m.displayMode {
	case Deinterlace:
		describe = appendFilter(describe, "yadif=0:-1")
	case DeinterlaceBob:
		describe = appendFilter(describe, "yadif=1:-1")
	case ScaleInterlaced:
		describe = appendFilterf(describe, "scale=w=%d:h=%d:interl=1", m.target.Width, m.target.Height)
	}

	if m.displayMode == Invalid {
		m.log.Debug("auto-transcode: failed to detect display mode, falling back to simple")
		m.displayMode = Simple
	}

	m.filter = newFilterChain(describe)
	m.log.Debug("display mode selected", "mode", m.displayMode.String(), "width", width, "height", height, "inFPS", m.inFPS)
}

// selectDisplayMode implements the {source, target} field-mode/fps
// combination table: simple when cadence/field modes already match
// one-to-one; half when the progressive source runs at 2x the progressive
// target rate (drop every other frame, e.g. 50p->25p); duplicate when the
// progressive target runs at 2x the progressive source rate (repeat every
// frame, e.g. 25p->50p); interlace when a progressive source runs at 2x
// an interlaced target's frame rate (two source frames per interlaced
// frame, e.g. 50p->25i); deinterlace/deinterlace_bob when an interlaced
// source feeds a progressive target at the same or doubled rate.
func selectDisplayMode(srcField media.FieldMode, srcFPS float64, targetField media.FieldMode, targetFPS float64) DisplayMode {
	const epsilon = 0.01

	sameRate := absf(srcFPS-targetFPS) < epsilon
	srcDouble := absf(srcFPS-targetFPS*2.0) < epsilon    // source fps = 2x target fps
	targetDouble := absf(targetFPS-srcFPS*2.0) < epsilon // target fps = 2x source fps

	srcInterlaced := srcField != media.Progressive
	targetInterlaced := targetField != media.Progressive

	switch {
	case srcField == targetField && sameRate:
		return Simple
	case !srcInterlaced && targetInterlaced && srcDouble:
		return Interlace
	case !srcInterlaced && !targetInterlaced && srcDouble:
		return Half
	case !srcInterlaced && !targetInterlaced && targetDouble:
		return Duplicate
	case srcInterlaced && !targetInterlaced && sameRate:
		return Deinterlace
	case srcInterlaced && !targetInterlaced && targetDouble:
		return DeinterlaceBob
	case sameRate:
		return Simple
	default:
		return Invalid
	}
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
