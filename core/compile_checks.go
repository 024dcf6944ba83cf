package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ OwnershipService = (*Registry)(nil)
	_ AssetStore       = (*MemoryAssetStore)(nil)
	_ AssetInserter    = (*MemoryAssetStore)(nil)
	_ OwnerSwapper     = (*MemoryAssetStore)(nil)
	_ AssetLister      = (*MemoryAssetStore)(nil)
	_ AssetLocker      = (*MemoryAssetLocker)(nil)
	_ IDGenerator      = RandomIDGenerator{}
	_ IdentityVerifier = IdentityVerifierFunc(nil)
	_ MetricsRecorder  = NopMetricsRecorder{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
