package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/backup"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
	"github.com/shandysiswandi/sigil/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportBackup(t *testing.T) {
	// Arrange
	src := newTestEnv(t)
	src.seed(t,
		entity.AccountDraft{Issuer: "GitHub", Label: "octo", Secret: "JBSWY3DPEHPK3PXP"},
		entity.AccountDraft{Issuer: "AWS", Label: "root", Secret: "GEZDGNBV", Algorithm: otp.AlgorithmSHA512, Digits: 8, Period: 60, Folder: "work"},
	)

	// Act
	out, err := src.uc.ExportBackup(context.Background(), ExportBackupInput{Password: "hunter2"})
	require.NoError(t, err)

	dst := newTestEnv(t)
	res, err := dst.uc.ImportBackup(context.Background(), ImportBackupInput{Data: out.Data, Password: "hunter2"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "sigil-backup-2024-03-09.json", out.FileName)
	assert.True(t, backup.IsContainer(out.Data))
	assert.Equal(t, &RestoreResult{Restored: 2}, res)

	want := src.list(t)
	got := dst.list(t)
	require.Len(t, got, 2)
	for i := range want {
		assert.Equal(t, want[i].Identity(), got[i].Identity())
		assert.Equal(t, want[i].Algorithm, got[i].Algorithm)
		assert.Equal(t, want[i].Digits, got[i].Digits)
		assert.Equal(t, want[i].Period, got[i].Period)
		assert.Equal(t, want[i].Folder, got[i].Folder)
	}

	res, err = dst.uc.ImportBackup(context.Background(), ImportBackupInput{Data: out.Data, Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, &RestoreResult{Skipped: 2}, res)
}

func TestExportBackup_Empty(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.uc.ExportBackup(context.Background(), ExportBackupInput{Password: "pw"})
	require.NoError(t, err)

	c, err := backup.ParseContainer(out.Data)
	require.NoError(t, err)
	plain, err := backup.Open(c, "pw")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(plain))

	_, err = env.uc.ExportBackup(context.Background(), ExportBackupInput{})
	assertCode(t, err, goerror.CodeInvalidInput)
}

func TestImportBackup_Errors(t *testing.T) {
	sealed := func(t *testing.T, plaintext string) []byte {
		t.Helper()
		c, err := backup.Seal("pw", []byte(plaintext))
		require.NoError(t, err)
		data, err := c.Marshal()
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name     string
		data     func(t *testing.T) []byte
		password string
		err      error
		code     goerror.Code
	}{
		{
			name:     "wrong password",
			data:     func(t *testing.T) []byte { return sealed(t, "[]") },
			password: "nope",
			err:      entity.ErrIncorrectPasswordOrCorrupted,
			code:     goerror.CodeUnauthorized,
		},
		{
			name:     "not json",
			data:     func(*testing.T) []byte { return []byte("garbage") },
			password: "pw",
			err:      entity.ErrInvalidBackupFormat,
			code:     goerror.CodeInvalidFormat,
		},
		{
			name: "future version",
			data: func(t *testing.T) []byte {
				var c map[string]any
				require.NoError(t, json.Unmarshal(sealed(t, "[]"), &c))
				c["v"] = 2
				data, err := json.Marshal(c)
				require.NoError(t, err)
				return data
			},
			password: "pw",
			err:      entity.ErrUnsupportedBackupVersion,
			code:     goerror.CodeUnsupported,
		},
		{
			name:     "object payload",
			data:     func(t *testing.T) []byte { return sealed(t, `{"a":1}`) },
			password: "pw",
			err:      entity.ErrDecodedDataNotArray,
			code:     goerror.CodeInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			res, err := env.uc.ImportBackup(context.Background(), ImportBackupInput{Data: tt.data(t), Password: tt.password})

			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.err)
			assertCode(t, err, tt.code)
			assert.Empty(t, env.list(t))
		})
	}
}

func TestExportImportCSV(t *testing.T) {
	src := newTestEnv(t)
	src.seed(t,
		entity.AccountDraft{Issuer: "Acme, Inc", Label: `say "hi"`, Secret: "JBSWY3DPEHPK3PXP", Folder: "a"},
		entity.AccountDraft{Issuer: "AWS", Label: "root", Secret: "GEZDGNBV", Algorithm: otp.AlgorithmSHA256, Digits: 8},
	)

	data, err := src.uc.ExportCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		backup.CSVHeader+"\n"+
			`"Acme, Inc","say ""hi""",JBSWY3DPEHPK3PXP,totp,SHA1,6,30,a`+"\n"+
			"AWS,root,GEZDGNBV,totp,SHA256,8,30,\n",
		string(data))

	dst := newTestEnv(t)
	res, err := dst.uc.ImportCSV(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, &RestoreResult{Restored: 2}, res)
	assert.Equal(t, "Acme, Inc", dst.list(t)[0].Issuer)

	_, err = dst.uc.ImportCSV(context.Background(), []byte("name,secret\nx,y\n"))
	assert.ErrorIs(t, err, entity.ErrInvalidBackupFormat)
}

func TestImportJSON(t *testing.T) {
	env := newTestEnv(t)
	data := []byte(`{"services":[
		{"name":"GitHub","secret":"JBSWY3DPEHPK3PXP","otp":{"account":"octo","digits":8,"algorithm":"SHA256"}},
		{"name":"NoSecret"}
	]}`)

	res, err := env.uc.ImportJSON(context.Background(), data)

	require.NoError(t, err)
	assert.Equal(t, &RestoreResult{Restored: 1}, res)
	list := env.list(t)
	assert.Equal(t, otp.AlgorithmSHA256, list[0].Algorithm)
	assert.Equal(t, 8, list[0].Digits)
}

func TestImportFile(t *testing.T) {
	src := newTestEnv(t)
	src.seed(t, entity.AccountDraft{Issuer: "GitHub", Label: "octo", Secret: "JBSWY3DPEHPK3PXP"})
	exported, err := src.uc.ExportBackup(context.Background(), ExportBackupInput{Password: "pw"})
	require.NoError(t, err)
	csvData, err := src.uc.ExportCSV(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name     string
		in       ImportFileInput
		restored int
		err      error
	}{
		{name: "encrypted json", in: ImportFileInput{Name: "b.JSON", Data: exported.Data, Password: "pw"}, restored: 1},
		{name: "plain json", in: ImportFileInput{Name: "b.json", Data: []byte(`[{"issuer":"X","secret":"AAAA"}]`)}, restored: 1},
		{name: "csv", in: ImportFileInput{Name: "export.csv", Data: csvData}, restored: 1},
		{name: "encrypted without password", in: ImportFileInput{Name: "b.json", Data: exported.Data}, err: entity.ErrPasswordRequired},
		{name: "unknown extension", in: ImportFileInput{Name: "b.txt", Data: []byte("x")}, err: entity.ErrUnsupportedFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			res, err := env.uc.ImportFile(context.Background(), tt.in)

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.restored, res.Restored)
		})
	}
}

func TestImportFile_MissingPasswordIsNotCryptoFailure(t *testing.T) {
	src := newTestEnv(t)
	src.seed(t, entity.AccountDraft{Issuer: "GitHub", Label: "octo", Secret: "JBSWY3DPEHPK3PXP"})
	exported, err := src.uc.ExportBackup(context.Background(), ExportBackupInput{Password: "pw"})
	require.NoError(t, err)

	_, err = newTestEnv(t).uc.ImportFile(context.Background(), ImportFileInput{Name: "b.json", Data: exported.Data})

	assert.ErrorIs(t, err, entity.ErrPasswordRequired)
	assert.NotErrorIs(t, err, entity.ErrIncorrectPasswordOrCorrupted)
	assertCode(t, err, goerror.CodeInvalidInput)
}
