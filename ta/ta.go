// Package ta holds the identifiers and command numbers of the trusted applications exercised
// by the regression suites.
package ta

import "github.com/google/uuid"

var (
	OSTest      = uuid.MustParse("5b9e0e40-2636-11e1-ad9e-0002a5d5c51b")
	Crypt       = uuid.MustParse("cb3e5ba0-adf1-11e0-998b-0002a5d5c51b")
	Concurrent  = uuid.MustParse("e13010e0-2ae1-11e5-896a-0002a5d5c51b")
	Storage     = uuid.MustParse("b689f2a7-8adf-477a-9f99-32e90c0ad0a2")
	InvokeTests = uuid.MustParse("d96a5b40-c3e5-21e3-8794-1002a5d5c61b")
)

// OS test application commands.
const (
	OSTestCmdInit  uint32 = 0
	OSTestCmdBasic uint32 = 5
	OSTestCmdPanic uint32 = 6
)

// Crypt application commands.
const (
	CryptCmdSHA256       uint32 = 2
	CryptCmdAES256ECBEnc uint32 = 3
	CryptCmdAES256ECBDec uint32 = 4
)

// Invoke-tests pseudo application commands.
const (
	InvokeTestsCmdParams    uint32 = 1
	InvokeTestsCmdSelfTests uint32 = 2
	InvokeTestsCmdMutex     uint32 = 7

	MutexTestWriter uint32 = 1
	MutexTestReader uint32 = 2
)

// Storage application commands.
const (
	StorageCmdOpen   uint32 = 0
	StorageCmdClose  uint32 = 1
	StorageCmdRead   uint32 = 2
	StorageCmdWrite  uint32 = 3
	StorageCmdSeek   uint32 = 4
	StorageCmdUnlink uint32 = 5
	StorageCmdCreate uint32 = 7
)

// Storage identifiers.
const (
	StoragePrivate     uint32 = 0x00000001
	StoragePrivateREE  uint32 = 0x80000000
	StoragePrivateRPMB uint32 = 0x80000100
)

// Data object access flags.
const (
	DataFlagAccessRead      uint32 = 0x00000001
	DataFlagAccessWrite     uint32 = 0x00000002
	DataFlagAccessWriteMeta uint32 = 0x00000004
	DataFlagOverwrite       uint32 = 0x00000400
	DataSeekSet             uint32 = 0
	DataSeekCur             uint32 = 1
	DataSeekEnd             uint32 = 2
)
