package xtest

import (
	"github.com/securetee/xtest/adbg"
	"github.com/securetee/xtest/ta"
	"github.com/securetee/xtest/teec"
)

var (
	file00 = []byte{
		0x00, 0x6E, 0x04, 0x57, 0x08, 0xFB, 0x71, 0x96,
		0xF0, 0x2E, 0x55, 0x3D, 0x02, 0xC3, 0xA6, 0x92,
		0xE9, 0xC3, 0xEF, 0x8A, 0xB2, 0x34, 0x53, 0xE6,
		0xF0, 0x74, 0x9C, 0xD6, 0x36, 0xE7, 0xA8, 0x8E,
	}
	file01 = []byte{0x01, 0x00}
	file02 = []byte{0x02, 0x11, 0x02}
	file03 = []byte{0x03, 0x13, 0x03}

	data00 = []byte{
		0x00, 0x6E, 0x04, 0x57, 0x08, 0xFB, 0x71, 0x96,
		0x00, 0x2E, 0x55, 0x3D, 0x02, 0xC3, 0xA6, 0x92,
		0x00, 0xC3, 0xEF, 0x8A, 0xB2, 0x34, 0x53, 0xE6,
		0x00, 0x74, 0x9C, 0xD6, 0x36, 0xE7, 0xA8, 0x00,
	}
	data01 = []byte{
		0x01, 0x6E, 0x04, 0x57, 0x08, 0xFB, 0x71, 0x96,
		0x01, 0x2E, 0x55, 0x3D, 0x02, 0xC3, 0xA6, 0x92,
		0x01, 0xC3, 0xEF, 0x8A, 0xB2, 0x34, 0x53, 0xE6,
		0x01, 0x74, 0x9C, 0xD6, 0x36, 0xE7, 0xA8, 0x01,
	}
)

func DoRegression6000Tests(t *T) {
	t.Run("6001 Test TEE_CreatePersistentObject", storageTest("Test TEE_CreatePersistentObject", doCreateTest))
	t.Run("6002 Test TEE_OpenPersistentObject", storageTest("Test TEE_OpenPersistentObject", doOpenTest))
	t.Run("6003 Test TEE_ReadObjectData", storageTest("Test TEE_ReadObjectData", doReadTest))
	t.Run("6004 Test TEE_WriteObjectData", storageTest("Test TEE_WriteObjectData", doWriteTest))
	t.Run("6005 Test TEE_SeekObjectData", storageTest("Test TEE_SeekObjectData", doSeekTest))
	t.Run("6006 Test TEE_CloseAndDeletePersistentObject", storageTest("Test TEE_CloseAndDeletePersistentObject", doUnlinkTest))
}

// storageTest runs a test body once per available storage, each in its own subcase and with
// its own session.
func storageTest(label string, body func(c *adbg.Case, sess *teec.Session, storageID uint32)) func(*T) {
	return func(t *T) {
		c := t.NewCase(label)
		defer c.Finalize(t)

		ids, err := t.StorageProbe().Available()
		if err != nil {
			c.Log("storage probe failed: %s", err)
			return
		}
		for _, id := range ids {
			c.BeginSubcase("Storage id: %08x", id)
			if sess, err := t.OpenSession(ta.Storage, nil); teec.ExpectSuccess(c, err, "OpenSession(Storage)") {
				body(c, sess, id)
				_ = sess.Close()
			}
			c.EndSubcase("Storage id: %08x", id)
		}
	}
}

func doCreateTest(c *adbg.Case, sess *teec.Session, storageID uint32) {
	flags := ta.DataFlagAccessWrite | ta.DataFlagAccessWriteMeta
	for _, id := range [][]byte{file00, file00[:0], nil} {
		obj, err := fsCreate(sess, id, flags, 0, data00, storageID)
		if !teec.ExpectSuccess(c, err, "fsCreate") {
			return
		}
		if !teec.ExpectSuccess(c, fsUnlink(sess, obj), "fsUnlink") {
			return
		}
	}
}

func doOpenTest(c *adbg.Case, sess *teec.Session, storageID uint32) {
	for _, id := range [][]byte{file01, nil} {
		obj, err := fsCreate(sess, id, ta.DataFlagAccessWrite, 0, data00, storageID)
		if !teec.ExpectSuccess(c, err, "fsCreate") {
			return
		}
		if !teec.ExpectSuccess(c, fsClose(sess, obj), "fsClose") {
			return
		}
		obj, err = fsOpen(sess, id, ta.DataFlagAccessWriteMeta, storageID)
		if !teec.ExpectSuccess(c, err, "fsOpen") {
			return
		}
		if !teec.ExpectSuccess(c, fsUnlink(sess, obj), "fsUnlink") {
			return
		}
	}
}

func doReadTest(c *adbg.Case, sess *teec.Session, storageID uint32) {
	obj, err := fsCreate(sess, file02, ta.DataFlagAccessWrite, 0, data01, storageID)
	if !teec.ExpectSuccess(c, err, "fsCreate") {
		return
	}
	if !teec.ExpectSuccess(c, fsClose(sess, obj), "fsClose") {
		return
	}
	obj, err = fsOpen(sess, file02, ta.DataFlagAccessRead|ta.DataFlagAccessWriteMeta, storageID)
	if !teec.ExpectSuccess(c, err, "fsOpen") {
		return
	}
	out, err := fsRead(sess, obj, 10)
	if !teec.ExpectSuccess(c, err, "fsRead") {
		return
	}
	c.ExpectBuffer(data01[:10], out, "out")

	teec.ExpectSuccess(c, fsUnlink(sess, obj), "fsUnlink")
}

func doWriteTest(c *adbg.Case, sess *teec.Session, storageID uint32) {
	obj, err := fsCreate(sess, file02, ta.DataFlagAccessWrite|ta.DataFlagAccessWriteMeta, 0, nil, storageID)
	if !teec.ExpectSuccess(c, err, "fsCreate") {
		return
	}
	if !teec.ExpectSuccess(c, fsWrite(sess, obj, data00), "fsWrite") {
		return
	}
	if !teec.ExpectSuccess(c, fsClose(sess, obj), "fsClose") {
		return
	}
	obj, err = fsOpen(sess, file02, ta.DataFlagAccessRead|ta.DataFlagAccessWriteMeta, storageID)
	if !teec.ExpectSuccess(c, err, "fsOpen") {
		return
	}
	out, err := fsRead(sess, obj, 10)
	if !teec.ExpectSuccess(c, err, "fsRead") {
		return
	}
	c.ExpectBuffer(data00[:10], out, "out")

	teec.ExpectSuccess(c, fsUnlink(sess, obj), "fsUnlink")
}

func doSeekTest(c *adbg.Case, sess *teec.Session, storageID uint32) {
	obj, err := fsCreate(sess, file01, ta.DataFlagAccessRead|ta.DataFlagAccessWriteMeta, 0, data00, storageID)
	if !teec.ExpectSuccess(c, err, "fsCreate") {
		return
	}
	if !teec.ExpectSuccess(c, fsSeek(sess, obj, 10, ta.DataSeekSet), "fsSeek") {
		return
	}
	out, err := fsRead(sess, obj, 1)
	if !teec.ExpectSuccess(c, err, "fsRead") {
		return
	}
	c.ExpectBuffer(data00[10:11], out, "out")

	teec.ExpectSuccess(c, fsUnlink(sess, obj), "fsUnlink")
}

func doUnlinkTest(c *adbg.Case, sess *teec.Session, storageID uint32) {
	obj, err := fsCreate(sess, file03, ta.DataFlagAccessWriteMeta, 0, data00, storageID)
	if !teec.ExpectSuccess(c, err, "fsCreate") {
		return
	}
	if !teec.ExpectSuccess(c, fsUnlink(sess, obj), "fsUnlink") {
		return
	}
	_, err = fsOpen(sess, file03, ta.DataFlagAccessRead, storageID)
	teec.ExpectResult(c, teec.ErrorItemNotFound, err, "fsOpen")
}
