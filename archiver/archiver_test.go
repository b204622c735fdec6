package archiver

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lefinal/meh"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type confirmerMock struct {
	confirm bool
	err     error
	prompts []string
}

func (mock *confirmerMock) RequestConfirm(_ context.Context, prompt string, _ bool) (bool, error) {
	mock.prompts = append(mock.prompts, prompt)
	return mock.confirm, mock.err
}

// archiverSuite tests Archiver.Archive.
type archiverSuite struct {
	suite.Suite
	fs        afero.Fs
	now       time.Time
	confirmer *confirmerMock
	options   Options
	template  string
	content   []byte
}

func (suite *archiverSuite) SetupTest() {
	suite.fs = afero.NewMemMapFs()
	suite.now = time.Date(2024, 1, 5, 10, 30, 0, 0, time.Local)
	suite.confirmer = &confirmerMock{}
	suite.options = Options{
		FS:          suite.fs,
		WorkDir:     "/work",
		Clock:       func() time.Time { return suite.now },
		OnCollision: CollisionFail,
		Confirmer:   suite.confirmer,
	}
	suite.template = "/work/run_skywalker_template.ipynb"
	suite.content = []byte(`{"cells": [{"cell_type": "code"}]}`)
	suite.Require().NoError(suite.fs.MkdirAll("/work", 0750))
	suite.Require().NoError(afero.WriteFile(suite.fs, suite.template, suite.content, 0644))
}

func (suite *archiverSuite) archive(target Target) (Result, error) {
	template, err := OpenTemplate(suite.fs, suite.template)
	suite.Require().NoError(err, "open template should not fail")
	return New(zap.NewNop(), suite.options).Archive(context.Background(), template, target)
}

func (suite *archiverSuite) requireContent(filename string) {
	actual, err := afero.ReadFile(suite.fs, filename)
	suite.Require().NoError(err, "read copy should not fail")
	suite.True(bytes.Equal(suite.content, actual), "should have copied correct content")
}

func (suite *archiverSuite) TestAutoNamed() {
	result, err := suite.archive(AutoNamed{})
	suite.Require().NoError(err, "should not fail")
	suite.Equal("/work/runs_2024_01_05/run_skywalker_2024_01_05_10_30_00.ipynb", result.Intended)
	suite.Equal(result.Intended, result.Written, "should write to intended path")
	suite.False(result.Anomalous(), "should not be anomalous")
	suite.EqualValues(len(suite.content), result.Bytes, "should report copied bytes")
	suite.requireContent(result.Written)
}

func (suite *archiverSuite) TestAutoNamedRunDirExists() {
	first, err := suite.archive(AutoNamed{})
	suite.Require().NoError(err, "first archive should not fail")
	suite.now = suite.now.Add(time.Second)

	second, err := suite.archive(AutoNamed{})
	suite.Require().NoError(err, "second archive should not fail")
	suite.NotEqual(first.Written, second.Written, "should write different files")
	suite.requireContent(first.Written)
	suite.requireContent(second.Written)
}

func (suite *archiverSuite) TestAutoNamedEmptyWorkDir() {
	suite.options.WorkDir = ""
	result, err := suite.archive(AutoNamed{})
	suite.Require().NoError(err, "should not fail")
	suite.Equal("runs_2024_01_05/run_skywalker_2024_01_05_10_30_00.ipynb", result.Written)
}

func (suite *archiverSuite) TestAutoNamedSameSecondFails() {
	_, err := suite.archive(AutoNamed{})
	suite.Require().NoError(err, "first archive should not fail")

	_, err = suite.archive(AutoNamed{})
	suite.Require().Error(err, "second archive should fail")
	suite.Equal(ErrCollision, meh.ErrorCode(err), "should fail with correct code")
}

func (suite *archiverSuite) TestExplicit() {
	result, err := suite.archive(ExplicitDestination{Path: "/elsewhere.ipynb"})
	suite.Require().NoError(err, "should not fail")
	suite.Equal("/elsewhere.ipynb", result.Written, "should write to explicit path")
	suite.False(result.Anomalous(), "should not be anomalous")
	suite.requireContent(result.Written)
	exists, err := afero.DirExists(suite.fs, "/work/runs_2024_01_05")
	suite.Require().NoError(err)
	suite.False(exists, "should not create run directory")
}

func (suite *archiverSuite) TestExplicitEmptyPath() {
	_, err := suite.archive(ExplicitDestination{})
	suite.Require().Error(err, "should fail")
	suite.Equal(meh.ErrBadInput, meh.ErrorCode(err), "should fail with correct code")
}

func (suite *archiverSuite) TestExplicitIsDirectory() {
	suite.Require().NoError(suite.fs.MkdirAll("/archive", 0750))
	result, err := suite.archive(ExplicitDestination{Path: "/archive"})
	suite.Require().NoError(err, "should not fail")
	suite.Equal("/archive", result.Intended)
	suite.Equal("/archive/run_skywalker_template.ipynb", result.Written)
	suite.True(result.Anomalous(), "should be anomalous")
	suite.requireContent(result.Written)
}

func (suite *archiverSuite) TestTemplateRemovedBeforeArchive() {
	template, err := OpenTemplate(suite.fs, suite.template)
	suite.Require().NoError(err, "open template should not fail")
	suite.Require().NoError(suite.fs.Remove(suite.template))

	_, err = New(zap.NewNop(), suite.options).Archive(context.Background(), template, AutoNamed{})
	suite.Require().Error(err, "should fail")
	suite.Equal(ErrMissingInput, meh.ErrorCode(err), "should fail with correct code")
	exists, err := afero.DirExists(suite.fs, "/work/runs_2024_01_05")
	suite.Require().NoError(err)
	suite.False(exists, "should not create run directory")
}

func (suite *archiverSuite) TestCollisionFail() {
	suite.Require().NoError(afero.WriteFile(suite.fs, "/work/out.ipynb", []byte("old"), 0644))
	_, err := suite.archive(ExplicitDestination{Path: "/work/out.ipynb"})
	suite.Require().Error(err, "should fail")
	suite.Equal(ErrCollision, meh.ErrorCode(err), "should fail with correct code")
	suite.Empty(suite.confirmer.prompts, "should not ask")
}

func (suite *archiverSuite) TestCollisionOverwrite() {
	suite.options.OnCollision = CollisionOverwrite
	suite.Require().NoError(afero.WriteFile(suite.fs, "/work/out.ipynb", []byte("old"), 0644))
	result, err := suite.archive(ExplicitDestination{Path: "/work/out.ipynb"})
	suite.Require().NoError(err, "should not fail")
	suite.requireContent(result.Written)
}

func (suite *archiverSuite) TestCollisionAskConfirmed() {
	suite.options.OnCollision = CollisionAsk
	suite.confirmer.confirm = true
	suite.Require().NoError(afero.WriteFile(suite.fs, "/work/out.ipynb", []byte("old"), 0644))
	result, err := suite.archive(ExplicitDestination{Path: "/work/out.ipynb"})
	suite.Require().NoError(err, "should not fail")
	suite.Len(suite.confirmer.prompts, 1, "should have asked once")
	suite.requireContent(result.Written)
}

func (suite *archiverSuite) TestCollisionAskDenied() {
	suite.options.OnCollision = CollisionAsk
	suite.confirmer.confirm = false
	suite.Require().NoError(afero.WriteFile(suite.fs, "/work/out.ipynb", []byte("old"), 0644))
	_, err := suite.archive(ExplicitDestination{Path: "/work/out.ipynb"})
	suite.Require().Error(err, "should fail")
	suite.Equal(ErrCollision, meh.ErrorCode(err), "should fail with correct code")
	suite.Len(suite.confirmer.prompts, 1, "should have asked once")
}

func (suite *archiverSuite) TestCollisionAskFails() {
	suite.options.OnCollision = CollisionAsk
	suite.confirmer.err = errors.New("sad life")
	suite.Require().NoError(afero.WriteFile(suite.fs, "/work/out.ipynb", []byte("old"), 0644))
	_, err := suite.archive(ExplicitDestination{Path: "/work/out.ipynb"})
	suite.Error(err, "should fail")
}

func (suite *archiverSuite) TestCollisionAskWithoutConfirmer() {
	suite.options.OnCollision = CollisionAsk
	suite.options.Confirmer = nil
	suite.Require().NoError(afero.WriteFile(suite.fs, "/work/out.ipynb", []byte("old"), 0644))
	_, err := suite.archive(ExplicitDestination{Path: "/work/out.ipynb"})
	suite.Error(err, "should fail")
}

func (suite *archiverSuite) TestCollisionInsideDirectory() {
	suite.Require().NoError(suite.fs.MkdirAll("/archive", 0750))
	suite.Require().NoError(afero.WriteFile(suite.fs, "/archive/run_skywalker_template.ipynb", []byte("old"), 0644))
	_, err := suite.archive(ExplicitDestination{Path: "/archive"})
	suite.Require().Error(err, "should fail")
	suite.Equal(ErrCollision, meh.ErrorCode(err), "should fail with correct code")
}

func (suite *archiverSuite) TestExplicitTemplateItselfWithOverwrite() {
	suite.options.OnCollision = CollisionOverwrite
	_, err := suite.archive(ExplicitDestination{Path: suite.template})
	suite.Require().Error(err, "should fail")
	suite.Equal(meh.ErrBadInput, meh.ErrorCode(err), "should fail with correct code")
	suite.requireContent(suite.template)
}

func (suite *archiverSuite) TestExplicitTemplateDirectoryWithAsk() {
	suite.options.OnCollision = CollisionAsk
	suite.confirmer.confirm = true
	_, err := suite.archive(ExplicitDestination{Path: "/work"})
	suite.Require().Error(err, "should fail")
	suite.Equal(meh.ErrBadInput, meh.ErrorCode(err), "should fail with correct code")
	suite.Empty(suite.confirmer.prompts, "should not ask")
	suite.requireContent(suite.template)
}

func (suite *archiverSuite) TestExplicitTemplateItselfWithFail() {
	_, err := suite.archive(ExplicitDestination{Path: suite.template})
	suite.Require().Error(err, "should fail")
	suite.Equal(meh.ErrBadInput, meh.ErrorCode(err), "should fail with correct code")
	suite.requireContent(suite.template)
}

func TestArchiver(t *testing.T) {
	suite.Run(t, new(archiverSuite))
}

// openTemplateSuite tests OpenTemplate.
type openTemplateSuite struct {
	suite.Suite
	fs afero.Fs
}

func (suite *openTemplateSuite) SetupTest() {
	suite.fs = afero.NewMemMapFs()
}

func (suite *openTemplateSuite) TestOK() {
	suite.Require().NoError(afero.WriteFile(suite.fs, "/a.ipynb", []byte("{}"), 0644))
	template, err := OpenTemplate(suite.fs, "/a.ipynb")
	suite.Require().NoError(err, "should not fail")
	suite.Equal("/a.ipynb", template.Path())
}

func (suite *openTemplateSuite) TestNotFound() {
	_, err := OpenTemplate(suite.fs, "/a.ipynb")
	suite.Require().Error(err, "should fail")
	suite.Equal(ErrMissingInput, meh.ErrorCode(err), "should fail with correct code")
}

func (suite *openTemplateSuite) TestDirectory() {
	suite.Require().NoError(suite.fs.MkdirAll("/a.ipynb", 0750))
	_, err := OpenTemplate(suite.fs, "/a.ipynb")
	suite.Require().Error(err, "should fail")
	suite.Equal(ErrMissingInput, meh.ErrorCode(err), "should fail with correct code")
}

func TestOpenTemplate(t *testing.T) {
	suite.Run(t, new(openTemplateSuite))
}
