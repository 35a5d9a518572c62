package xtest

import (
	"github.com/securetee/xtest/ta"
	"github.com/securetee/xtest/teec"
)

// Wrappers for the storage application's commands. Each returns the object handle or data
// that the command produces.

func fsCreate(sess *teec.Session, id []byte, flags, attr uint32, data []byte, storageID uint32) (uint32, error) {
	op := teec.NewOperation(
		teec.TempIn(id),
		teec.ValueInOut(flags, 0),
		teec.ValueIn(attr, storageID),
		teec.TempIn(data),
	)
	if err := sess.Invoke(ta.StorageCmdCreate, op); err != nil {
		return 0, err
	}
	return op.Params[1].Value.B, nil
}

func fsOpen(sess *teec.Session, id []byte, flags, storageID uint32) (uint32, error) {
	op := teec.NewOperation(
		teec.TempIn(id),
		teec.ValueInOut(flags, 0),
		teec.ValueIn(storageID, 0),
	)
	if err := sess.Invoke(ta.StorageCmdOpen, op); err != nil {
		return 0, err
	}
	return op.Params[1].Value.B, nil
}

func fsClose(sess *teec.Session, obj uint32) error {
	return sess.Invoke(ta.StorageCmdClose, teec.NewOperation(teec.ValueIn(obj, 0)))
}

// fsRead reads up to size bytes from the current position.
func fsRead(sess *teec.Session, obj uint32, size int) ([]byte, error) {
	op := teec.NewOperation(
		teec.TempOut(make([]byte, size)),
		teec.ValueInOut(obj, 0),
	)
	if err := sess.Invoke(ta.StorageCmdRead, op); err != nil {
		return nil, err
	}
	count := int(op.Params[1].Value.B)
	if count > len(op.Params[0].Buffer) {
		count = len(op.Params[0].Buffer)
	}
	return op.Params[0].Buffer[:count], nil
}

func fsWrite(sess *teec.Session, obj uint32, data []byte) error {
	return sess.Invoke(ta.StorageCmdWrite, teec.NewOperation(
		teec.TempIn(data),
		teec.ValueIn(obj, 0),
	))
}

func fsSeek(sess *teec.Session, obj uint32, offset int32, whence uint32) error {
	return sess.Invoke(ta.StorageCmdSeek, teec.NewOperation(
		teec.ValueIn(obj, uint32(offset)),
		teec.ValueInOut(whence, 0),
	))
}

func fsUnlink(sess *teec.Session, obj uint32) error {
	return sess.Invoke(ta.StorageCmdUnlink, teec.NewOperation(teec.ValueIn(obj, 0)))
}
