// Package demux implements MPEG-TS demuxing with H.264/H.265 video and AAC
// audio parsing. It splits a transport stream into discrete access units —
// video NALU groups and audio ADTS frames — and SCTE-35 splice events.
//
// Demux stops at access-unit boundaries; it never decodes pixels or PCM
// samples. The central type is [Demuxer], which reads from an [io.Reader]
// and produces parsed access units on typed channels, consumed by
// decoder.Stub on their way into a producer's frame muxer. Codec-specific
// parsing is provided by [ParseAnnexB], [ParseSPS], [ParseADTS], and their
// HEVC counterparts.
package demux
