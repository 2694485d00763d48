package statute

import (
	"bytes"
	"reflect"
	"testing"
)

func TestMethodRequest(t *testing.T) {
	want := MethodRequest{VersionSocks5, 1, []byte{MethodNoAuth}}
	got, err := ParseMethodRequest(bytes.NewReader(want.Bytes()))
	if err != nil {
		t.Fatalf("ParseMethodRequest() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseMethodRequest() got = %+v, want %+v", got, want)
	}
	if !got.HasMethod(MethodNoAuth) {
		t.Errorf("HasMethod(MethodNoAuth) = false, want true")
	}
	if got.HasMethod(MethodNoAcceptable) {
		t.Errorf("HasMethod(MethodNoAcceptable) = true, want false")
	}
}

func TestMethodRequestBadVersion(t *testing.T) {
	_, err := ParseMethodRequest(bytes.NewReader([]byte{0x04, 1, MethodNoAuth}))
	if err == nil {
		t.Fatal("ParseMethodRequest() expected error on SOCKS4 version")
	}
}

func TestMethodReply(t *testing.T) {
	want := MethodReply{VersionSocks5, MethodNoAuth}
	got, err := ParseMethodReply(bytes.NewReader(want.Bytes()))
	if err != nil {
		t.Fatalf("ParseMethodReply() error = %v", err)
	}
	if got != want {
		t.Errorf("ParseMethodReply() got = %+v, want %+v", got, want)
	}
}
