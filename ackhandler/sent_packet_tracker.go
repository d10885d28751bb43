// Package ackhandler tracks packets in flight and turns their
// acknowledgement, loss, or abandonment into the events a
// congestion.Sender consumes. This is the role the teacher's
// outgoingPacketAckHandler played for QUIC's own entropy/NACK-range
// accounting (ackhandler/outgoing_packet_ack_handler.go); here the
// bookkeeping exists purely to drive the congestion controller, so the
// wire-format pieces (entropy bits, frame construction) are gone.
package ackhandler

import (
	"sync"
	"time"

	"github.com/nagineni/quic-cc/congestion"
	"github.com/nagineni/quic-cc/protocol"
)

type sentPacket struct {
	bytes                  protocol.ByteCount
	sentAt                 time.Time
	hasRetransmittableData bool
}

// SentPacketTracker records outgoing packets by sequence number and
// forwards their eventual fate to a congestion.Sender. The caller must
// serialize access to a given tracker, the same single-writer contract
// its Sender carries.
type SentPacketTracker struct {
	mu      sync.Mutex
	sender  *congestion.Sender
	history map[protocol.PacketNumber]sentPacket
}

// NewSentPacketTracker creates a tracker that drives sender.
func NewSentPacketTracker(sender *congestion.Sender) *SentPacketTracker {
	return &SentPacketTracker{
		sender:  sender,
		history: make(map[protocol.PacketNumber]sentPacket),
	}
}

// SentPacket records a packet leaving the wire at sentAt and notifies the
// congestion controller.
func (t *SentPacketTracker) SentPacket(seq protocol.PacketNumber, bytes protocol.ByteCount, transmissionType congestion.TransmissionType, hasRetransmittableData bool, sentAt time.Time) {
	t.mu.Lock()
	t.history[seq] = sentPacket{bytes: bytes, sentAt: sentAt, hasRetransmittableData: hasRetransmittableData}
	t.mu.Unlock()
	t.sender.OnPacketSent(seq, bytes, transmissionType, hasRetransmittableData)
}

// ReceivedAck reports that seq was acknowledged at ackTime. It looks up
// the packet's recorded size and send time to compute the RTT sample and
// forwards both to the congestion controller. A seq with no recorded
// history (already acked, lost, or abandoned) is ignored.
func (t *SentPacketTracker) ReceivedAck(seq protocol.PacketNumber, ackTime time.Time) {
	t.mu.Lock()
	p, ok := t.history[seq]
	if ok {
		delete(t.history, seq)
	}
	t.mu.Unlock()
	if !ok {
		return
	}
	t.sender.OnAck(seq, p.bytes, ackTime.Sub(p.sentAt))
}

// DeclaredLost reports that seq is presumed lost. The packet is dropped
// from history and a single congestion-control loss event is applied.
func (t *SentPacketTracker) DeclaredLost(seq protocol.PacketNumber, lossTime time.Time) {
	t.mu.Lock()
	delete(t.history, seq)
	t.mu.Unlock()
	t.sender.OnLoss(lossTime)
}

// Abandoned reports that seq will never be acknowledged or retransmitted
// (e.g. its stream was reset). Its bytes are released from flight without
// any congestion-window penalty.
func (t *SentPacketTracker) Abandoned(seq protocol.PacketNumber) {
	t.mu.Lock()
	p, ok := t.history[seq]
	if ok {
		delete(t.history, seq)
	}
	t.mu.Unlock()
	if ok {
		t.sender.OnPacketAbandoned(seq, p.bytes)
	}
}

// InFlight reports how many packets the tracker currently believes are
// in flight (sent, neither acked, lost, nor abandoned).
func (t *SentPacketTracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history)
}
