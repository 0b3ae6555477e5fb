// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import "fmt"

// Single source of truth for deriving the named objects a channel name
// maps to: two distinct ring names (one per direction) and one election
// mutex name. Modeled on the teacher's netopts.go transport-to-
// (Protocol,ByteOrder) mapping, repurposed here for
// name-to-(masterRing,slaveRing,mutex).
func masterRingName(channel string) string { return fmt.Sprintf("%s_Master_SharedMemory_MMF", channel) }
func slaveRingName(channel string) string  { return fmt.Sprintf("%s_Slave_SharedMemory_MMF", channel) }
func mutexName(channel string) string      { return fmt.Sprintf("%sSharedMemory_MasterMutex", channel) }

// outboundInboundNames resolves this peer's (outbound, inbound) ring
// names for the given role. Inbound ring = this peer's own named region
// ({name}_Master_.. for the master, {name}_Slave_.. for the slave);
// outbound ring = the other peer's.
func outboundInboundNames(channel string, isMaster bool) (outbound, inbound string) {
	master, slave := masterRingName(channel), slaveRingName(channel)
	if isMaster {
		return slave, master
	}
	return master, slave
}
